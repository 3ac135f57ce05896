// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package variant

import "fmt"

// systemPromptTemplate is shared by the direct DeepSeek recipes. %s is the model persona.
const systemPromptTemplate = `你是%s，一个由深度求索公司开发的智能助手，你会以诚实专业的态度帮助用户，用中文回答问题，你会严格遵循以下要求：

1.**基本准则**
- 用与用户相同的语言回复
- 友好、简洁、相关
- 避免重复内容或偏离主题
- 拒绝不道德或有害请求
- 不提供时效性强或需要实时更新的信息
- 不编造未知信息
- 代码用markdown格式
- 数学公式用LaTeX

2. **安全合规**
- 禁止讨论政治、领导人、政党
- 不提供医疗、法律、金融建议
- 不参与涉及暴力、欺骗等非法场景
- 遇到危险请求时明确拒绝

3.**能力说明**
- 数学计算需分步展示过程
- 代码问题优先解释思路再写代码
- 文件处理需用户提供内容
- 联网搜索需要具体查询词
- 图片生成需转换为文生图提示词

4.**交互规范**
- 不主动结束对话
- 不解释自身局限性
- 不讨论内部工作原理
- 不重复用户问题
- 遇到无法处理的情况建议转换话题

最终回复要简洁自然。`

func builtin() []Variant {
	return []Variant{
		{
			Tag:         TagPlain,
			DisplayName: "DeepSeek-V3",
			Strategy:    DirectFields,
			Recipe: Recipe{
				Transport:    TransportOpenAI,
				BaseURL:      DefaultDeepSeekURL,
				Model:        "deepseek-chat",
				KeyEnv:       "DEEPSEEK_API_KEY",
				SystemPrompt: persona("Deepseek-V3"),
				Temperature:  0.6,
			},
		},
		// deepseek-reasoner returns reasoning_content next to content, so the
		// fields are read directly. A heuristic split of content would cut a
		// plain answer at its first blank line.
		{
			Tag:         TagReasoningLarge,
			DisplayName: "DeepSeek-R1 (671B)",
			Strategy:    DirectFields,
			Reasoning:   true,
			Recipe: Recipe{
				Transport:    TransportOpenAI,
				BaseURL:      DefaultDeepSeekURL,
				Model:        "deepseek-reasoner",
				KeyEnv:       "DEEPSEEK_API_KEY",
				SystemPrompt: persona("DeepSeek-R1"),
				Temperature:  0.6,
				MaxTokens:    2000,
			},
		},
		{
			Tag:         TagReasoningSmall,
			DisplayName: "DeepSeek-R1 (7B)",
			Strategy:    HeuristicSplit,
			Reasoning:   true,
			Recipe: Recipe{
				Transport:    TransportOpenAI,
				BaseURL:      DefaultOneAPIURL,
				Model:        "deepseek-r1:7b",
				KeyEnv:       "ONEAPI_API_KEY",
				SystemPrompt: persona("DeepSeek-R1"),
				Temperature:  0.6,
				MaxTokens:    2000,
			},
		},
		{
			Tag:         TagPlainSearch,
			DisplayName: "DeepSeek-V3 + 联网搜索",
			Strategy:    DirectFields,
			Search:      true,
			Recipe: Recipe{
				Transport: TransportFastGPT,
				BaseURL:   DefaultFastGPTURL,
				KeyEnv:    "DEEPSEEK_V3_WITH_BOCHA",
				AppUID:    "deepseekdeepseek",
				AppName:   "deepseek-v3",
			},
		},
		{
			Tag:         TagReasoningLargeSearch,
			DisplayName: "DeepSeek-R1 + 联网搜索",
			Strategy:    TaggedItems,
			Reasoning:   true,
			Search:      true,
			Recipe: Recipe{
				Transport: TransportFastGPT,
				BaseURL:   DefaultFastGPTURL,
				KeyEnv:    "DEEPSEEK_R1_WITH_BOCHA",
				AppUID:    "deepseekdeepseek",
				AppName:   "deepseek-r1",
			},
		},
	}
}

func persona(name string) string {
	return fmt.Sprintf(systemPromptTemplate, name)
}
