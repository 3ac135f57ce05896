// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

// Item types in a tagged content list.
const (
	itemReasoning = "reasoning"
	itemText      = "text"
)

// taggedItems walks a typed item list. The first item of each type wins and
// items are found by type, never by position. A plain string degrades to the
// answer.
func taggedItems(content any) (reasoning, main string) {
	switch c := content.(type) {
	case string:
		return "", c
	case []any:
		var seenReasoning, seenText bool
		for _, it := range c {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			kind, _ := item["type"].(string)
			switch {
			case kind == itemReasoning && !seenReasoning:
				reasoning, seenReasoning = innerContent(item, itemReasoning), true
			case kind == itemText && !seenText:
				main, seenText = innerContent(item, itemText), true
			}
		}
		return reasoning, main
	}
	return "", ""
}

// innerContent reads item[key].content, accepting a bare string at item[key].
func innerContent(item map[string]any, key string) string {
	switch v := item[key].(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v["content"].(string)
		return s
	}
	return ""
}
