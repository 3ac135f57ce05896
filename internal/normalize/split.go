// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import "strings"

// paragraphBreak separates the reasoning paragraph from the answer.
const paragraphBreak = "\n\n"

// Markers that introduce the final answer, checked in this order.
var answerMarkers = []string{"结论：", "最终答案：", "答案：", "总结："}

// AnswerMarkers returns the ordered marker list.
func AnswerMarkers() []string {
	out := make([]string, len(answerMarkers))
	copy(out, answerMarkers)
	return out
}

// SplitHeuristic separates reasoning from answer in unstructured text.
// The first rule that matches wins:
//
//  1. a blank line: the first paragraph is reasoning, the rest is the answer
//  2. the first marker in list order that occurs: text before it is reasoning,
//     the marker and everything after it is the answer (both trimmed)
//  3. no structure: empty reasoning, the whole text unchanged as the answer
func SplitHeuristic(text string) (reasoning, main string) {
	if i := strings.Index(text, paragraphBreak); i >= 0 {
		return text[:i], text[i+len(paragraphBreak):]
	}

	for _, marker := range answerMarkers {
		i := strings.Index(text, marker)
		if i < 0 {
			continue
		}
		rest := text[i+len(marker):]
		return strings.TrimSpace(text[:i]), marker + strings.TrimSpace(rest)
	}

	return "", text
}
