// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jeranaias/seekchat/internal/variant"
)

// callOpenAI sends one chat completion to an OpenAI-compatible endpoint and
// returns the raw response JSON, which keeps fields the SDK does not model
// (reasoning_content).
func (c *Client) callOpenAI(ctx context.Context, v variant.Variant, key, text string) (json.RawMessage, error) {
	baseURL := v.Recipe.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := openai.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	)

	var messages []openai.ChatCompletionMessageParamUnion
	if v.Recipe.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(v.Recipe.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(text))

	params := openai.ChatCompletionNewParams{
		Model:    v.Recipe.Model,
		Messages: messages,
	}
	if v.Recipe.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(v.Recipe.MaxTokens))
	}
	if v.Recipe.Temperature > 0 {
		params.Temperature = openai.Float(v.Recipe.Temperature)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			detail := apiErr.Message
			if detail == "" {
				detail = detailFromBody(apiErr.StatusCode, []byte(apiErr.RawJSON()))
			}
			return failurePayload(apiErr.StatusCode, detail), nil
		}
		return nil, &TransportError{Variant: v.Tag, Op: "chat completion", Err: err}
	}

	raw := resp.RawJSON()
	if raw == "" {
		return nil, &TransportError{Variant: v.Tag, Op: "chat completion", Err: errors.New("empty response")}
	}
	return json.RawMessage(raw), nil
}
