// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"encoding/json"
	"strings"
)

const genericFailure = "upstream reported failure"

// upstreamFailure recognizes payloads in which the service reports its own
// failure: success:false, a non-empty error field, or a non-200 code without
// choices.
func upstreamFailure(doc any) (string, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return "", false
	}

	failed := false
	if s, ok := m["success"].(bool); ok && !s {
		failed = true
	}
	if errorText(m["error"]) != "" {
		failed = true
	}
	if code, ok := m["code"].(json.Number); ok {
		if _, hasChoices := m["choices"]; !hasChoices && code.String() != "200" && code.String() != "0" {
			failed = true
		}
	}
	if !failed {
		return "", false
	}

	detail := errorText(m["error"])
	if detail == "" {
		detail = errorText(m["message"])
	}
	if extra := errorText(m["details"]); extra != "" {
		if detail == "" {
			detail = extra
		} else {
			detail = detail + ": " + extra
		}
	}
	if detail == "" {
		detail = genericFailure
	}
	return detail, true
}

// errorText renders an error field that may be a string or an object with a
// message. Placeholders (false, zero, {} and []) read as absent.
func errorText(v any) string {
	switch e := v.(type) {
	case nil, bool:
		return ""
	case string:
		return strings.TrimSpace(e)
	case json.Number:
		if f, err := e.Float64(); err == nil && f == 0 {
			return ""
		}
		return e.String()
	case []any:
		if len(e) == 0 {
			return ""
		}
	case map[string]any:
		if len(e) == 0 {
			return ""
		}
		for _, key := range []string{"message", "msg"} {
			if s, ok := e[key].(string); ok && s != "" {
				return s
			}
		}
		b, err := json.Marshal(e)
		if err != nil {
			return genericFailure
		}
		return string(b)
	}
	b, _ := json.Marshal(v)
	return string(b)
}
