// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/seekchat/internal/model"
)

// ExtractSearch pulls web-search evidence out of a decoded payload. It reads
// httpResult.data.webPages.value, falling back to data.webPages.value, and
// keeps at most model.MaxSearchResults entries in upstream order. A missing
// collection yields no results.
func ExtractSearch(doc any) []model.SearchResult {
	items := lookupArray(doc, "httpResult", "data", "webPages", "value")
	if items == nil {
		items = lookupArray(doc, "data", "webPages", "value")
	}
	if len(items) == 0 {
		return nil
	}

	results := make([]model.SearchResult, 0, min(len(items), model.MaxSearchResults))
	for _, it := range items {
		if len(results) == model.MaxSearchResults {
			break
		}
		page, ok := it.(map[string]any)
		if !ok {
			continue
		}
		snippet := field(page, "summary")
		if snippet == "" {
			snippet = field(page, "snippet")
		}
		results = append(results, model.SearchResult{
			Title:      field(page, "name"),
			URL:        field(page, "url"),
			Snippet:    snippet,
			SourceName: field(page, "siteName"),
			CrawledAt:  field(page, "dateLastCrawled"),
		})
	}
	return results
}

func lookupArray(doc any, path ...string) []any {
	cur := doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	arr, _ := cur.([]any)
	return arr
}

// field returns a trimmed, NFC-normalized string value or "".
func field(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return norm.NFC.String(strings.TrimSpace(s))
}
