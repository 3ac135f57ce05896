// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/variant"
)

var reg = variant.Default()

func chatPayload(t *testing.T, message map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"created": 1700000000,
		"choices": []any{map[string]any{"index": 0, "message": message}},
	})
	require.NoError(t, err)
	return b
}

// =============================================================================
// DIRECT FIELDS
// =============================================================================

func TestDirectFieldsNeverSplits(t *testing.T) {
	raw := json.RawMessage(`{"content":"A\n\nB","reasoningContent":"R"}`)
	resp := Normalize(reg.MustLookup(variant.TagReasoningLarge), raw)

	require.True(t, resp.OK)
	assert.Equal(t, "A\n\nB", resp.MainText)
	assert.Equal(t, "R", resp.ReasoningText)
	assert.Empty(t, resp.SearchResults)
}

func TestDirectFieldsFromChoices(t *testing.T) {
	raw := chatPayload(t, map[string]any{
		"role":              "assistant",
		"content":           "答案：42",
		"reasoning_content": "先想一想",
	})
	resp := Normalize(reg.MustLookup(variant.TagReasoningLarge), raw)

	require.True(t, resp.OK)
	assert.Equal(t, "答案：42", resp.MainText)
	assert.Equal(t, "先想一想", resp.ReasoningText)
}

func TestDirectFieldsMissingFields(t *testing.T) {
	resp := Normalize(reg.MustLookup(variant.TagPlain), json.RawMessage(`{"choices":[{"message":{}}]}`))
	require.True(t, resp.OK)
	assert.Empty(t, resp.MainText)
	assert.Empty(t, resp.ReasoningText)
}

// =============================================================================
// HEURISTIC SPLIT
// =============================================================================

func TestSplitHeuristic(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantReasoning string
		wantMain      string
	}{
		{"blank line", "分析过程...\n\n结论：答案是42", "分析过程...", "结论：答案是42"},
		{"blank line keeps later paragraphs", "p1\n\np2\n\np3", "p1", "p2\n\np3"},
		{"marker", "一些分析答案：42", "一些分析", "答案：42"},
		{"marker trims", "  思考  结论：  好  ", "思考", "结论：好"},
		{"longer marker found first", "推导过程最终答案：7", "推导过程", "最终答案：7"},
		{"list order wins over position", "总结：略 结论：是", "总结：略", "结论：是"},
		{"marker at start", "总结：全部", "", "总结：全部"},
		{"fallback", "42", "", "42"},
		{"fallback keeps whitespace", "  42 ", "", "  42 "},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := SplitHeuristic(tt.text)
			assert.Equal(t, tt.wantReasoning, r)
			assert.Equal(t, tt.wantMain, m)
		})
	}
}

func TestHeuristicVariant(t *testing.T) {
	v := reg.MustLookup(variant.TagReasoningSmall)

	resp := Normalize(v, chatPayload(t, map[string]any{"content": "分析过程...\n\n结论：答案是42"}))
	require.True(t, resp.OK)
	assert.Equal(t, "分析过程...", resp.ReasoningText)
	assert.Equal(t, "结论：答案是42", resp.MainText)

	resp = Normalize(v, json.RawMessage(`"一些分析答案：42"`))
	require.True(t, resp.OK)
	assert.Equal(t, "一些分析", resp.ReasoningText)
	assert.Equal(t, "答案：42", resp.MainText)
}

func TestAnswerMarkersIsACopy(t *testing.T) {
	m := AnswerMarkers()
	m[0] = "changed"
	assert.Equal(t, "结论：", AnswerMarkers()[0])
}

// =============================================================================
// TAGGED ITEMS
// =============================================================================

func TestTaggedItemsOrderIndependent(t *testing.T) {
	v := reg.MustLookup(variant.TagReasoningLargeSearch)
	forward := `[{"type":"reasoning","reasoning":{"content":"R"}},{"type":"text","text":{"content":"A"}}]`
	reversed := `[{"type":"text","text":{"content":"A"}},{"type":"reasoning","reasoning":{"content":"R"}}]`

	for _, content := range []string{forward, reversed} {
		raw := json.RawMessage(`{"choices":[{"message":{"role":"assistant","content":` + content + `}}]}`)
		resp := Normalize(v, raw)
		require.True(t, resp.OK)
		assert.Equal(t, "R", resp.ReasoningText)
		assert.Equal(t, "A", resp.MainText)
	}

	// Bare top-level item list.
	resp := Normalize(v, json.RawMessage(forward))
	require.True(t, resp.OK)
	assert.Equal(t, "R", resp.ReasoningText)
	assert.Equal(t, "A", resp.MainText)
}

func TestTaggedItemsFirstOfEachTypeWins(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"tool","tool":{"content":"ignored"}},
		{"type":"text","text":{"content":"first"}},
		{"type":"text","text":{"content":"second"}}
	]`)
	resp := Normalize(reg.MustLookup(variant.TagReasoningLargeSearch), raw)
	require.True(t, resp.OK)
	assert.Empty(t, resp.ReasoningText)
	assert.Equal(t, "first", resp.MainText)
}

func TestTaggedItemsDegradesOnPlainString(t *testing.T) {
	raw := json.RawMessage(`{"choices":[{"message":{"content":"just text\n\nmore"}}]}`)
	resp := Normalize(reg.MustLookup(variant.TagReasoningLargeSearch), raw)
	require.True(t, resp.OK)
	assert.Empty(t, resp.ReasoningText)
	assert.Equal(t, "just text\n\nmore", resp.MainText)
}

// =============================================================================
// SEARCH EXTRACTION
// =============================================================================

func searchPayload(n int) json.RawMessage {
	pages := make([]map[string]any, n)
	for i := range pages {
		pages[i] = map[string]any{
			"name":            fmt.Sprintf("title %d", i),
			"url":             fmt.Sprintf("https://example.com/%d", i),
			"summary":         fmt.Sprintf("summary %d", i),
			"siteName":        "example",
			"dateLastCrawled": "2025-01-01T00:00:00Z",
		}
	}
	b, _ := json.Marshal(map[string]any{
		"choices":    []any{map[string]any{"message": map[string]any{"content": "answer"}}},
		"httpResult": map[string]any{"data": map[string]any{"webPages": map[string]any{"value": pages}}},
	})
	return b
}

func TestSearchResultsCapped(t *testing.T) {
	resp := Normalize(reg.MustLookup(variant.TagPlainSearch), searchPayload(15))

	require.True(t, resp.OK)
	require.Len(t, resp.SearchResults, model.MaxSearchResults)
	assert.Equal(t, "title 0", resp.SearchResults[0].Title)
	assert.Equal(t, "title 9", resp.SearchResults[9].Title)
	assert.Equal(t, "https://example.com/3", resp.SearchResults[3].URL)
	assert.Equal(t, "summary 3", resp.SearchResults[3].Snippet)
	assert.Equal(t, "example", resp.SearchResults[3].SourceName)
	assert.Equal(t, "2025-01-01T00:00:00Z", resp.SearchResults[3].CrawledAt)
}

func TestSearchEchoDropsCollection(t *testing.T) {
	resp := Normalize(reg.MustLookup(variant.TagPlainSearch), searchPayload(2))

	var echo map[string]any
	require.NoError(t, json.Unmarshal(resp.Echo, &echo))
	assert.Contains(t, echo, "httpResult")
	assert.Nil(t, echo["httpResult"])
	assert.Contains(t, echo, "choices")
	assert.NotContains(t, string(resp.Echo), "example.com")
}

func TestSearchIgnoredForNonSearchVariant(t *testing.T) {
	resp := Normalize(reg.MustLookup(variant.TagPlain), searchPayload(3))
	require.True(t, resp.OK)
	assert.Empty(t, resp.SearchResults)
}

func TestSearchBareShapeAndFallbacks(t *testing.T) {
	// "e" + combining acute, normalized to a single code point.
	raw := json.RawMessage(`{
		"content": "ok",
		"data": {"webPages": {"value": [
			{"name": " Cafe\u0301 ", "url": "https://a", "snippet": "only snippet"},
			"not an object"
		]}}
	}`)
	resp := Normalize(reg.MustLookup(variant.TagPlainSearch), raw)

	require.True(t, resp.OK)
	require.Len(t, resp.SearchResults, 1)
	assert.Equal(t, "Caf\u00e9", resp.SearchResults[0].Title)
	assert.Equal(t, "only snippet", resp.SearchResults[0].Snippet)
	assert.Empty(t, resp.SearchResults[0].SourceName)
}

func TestSearchAbsentYieldsEmpty(t *testing.T) {
	resp := Normalize(reg.MustLookup(variant.TagPlainSearch), json.RawMessage(`{"content":"x"}`))
	require.True(t, resp.OK)
	assert.Empty(t, resp.SearchResults)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestUpstreamFailure(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		detail string
	}{
		{"success false", `{"success":false,"error":"服务器错误","details":"timeout"}`, "服务器错误: timeout"},
		{"error object", `{"error":{"message":"invalid key","type":"auth"}}`, "invalid key"},
		{"details only", `{"success":false,"details":"boom"}`, "boom"},
		{"bare flag", `{"success":false}`, genericFailure},
		{"error code envelope", `{"code":500,"statusText":"","message":"app not found"}`, "app not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Normalize(reg.MustLookup(variant.TagPlain), json.RawMessage(tt.raw))
			assert.False(t, resp.OK)
			assert.Equal(t, tt.detail, resp.ErrorDetail)
			assert.Empty(t, resp.MainText)
		})
	}
}

func TestErrorPlaceholdersAreNotFailure(t *testing.T) {
	for _, placeholder := range []string{`0`, `0.0`, `{}`, `[]`, `false`, `null`, `""`} {
		t.Run(placeholder, func(t *testing.T) {
			raw := json.RawMessage(`{"choices":[{"message":{"content":"hi"}}],"error":` + placeholder + `}`)
			resp := Normalize(reg.MustLookup(variant.TagPlain), raw)
			require.True(t, resp.OK)
			assert.Equal(t, "hi", resp.MainText)
			assert.Empty(t, resp.ErrorDetail)
		})
	}
}

func TestNonZeroErrorCodeIsFailure(t *testing.T) {
	raw := json.RawMessage(`{"choices":[{"message":{"content":"hi"}}],"error":429}`)
	resp := Normalize(reg.MustLookup(variant.TagPlain), raw)
	assert.False(t, resp.OK)
	assert.Equal(t, "429", resp.ErrorDetail)
}

func TestSuccessCodeIsNotFailure(t *testing.T) {
	raw := json.RawMessage(`{"code":200,"choices":[{"message":{"content":"hi"}}]}`)
	resp := Normalize(reg.MustLookup(variant.TagPlain), raw)
	require.True(t, resp.OK)
	assert.Equal(t, "hi", resp.MainText)
}

func TestMalformedPayload(t *testing.T) {
	for _, raw := range []string{"", "{", "not json"} {
		resp := Normalize(reg.MustLookup(variant.TagPlain), json.RawMessage(raw))
		assert.False(t, resp.OK, "payload %q", raw)
		assert.True(t, strings.HasPrefix(resp.ErrorDetail, "malformed upstream payload"))
	}
}

// =============================================================================
// PURITY AND DISPATCH
// =============================================================================

func TestNormalizeDeterministic(t *testing.T) {
	raw := searchPayload(4)
	for _, tag := range reg.Tags() {
		v := reg.MustLookup(tag)
		assert.Equal(t, Normalize(v, raw), Normalize(v, raw), tag)
	}
}

func TestNormalizeTagUnknown(t *testing.T) {
	_, err := NormalizeTag(reg, "gpt-9", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, variant.ErrUnknownVariant))

	resp, err := NormalizeTag(reg, variant.TagPlain, json.RawMessage(`{"content":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", resp.MainText)
}
