// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package normalize converts upstream payloads of every variant into one
// canonical Response.
//
// Normalize is a pure function: no I/O, no clock, no retries. Upstream failure
// and unrecognized structure are reported as data, never as errors; the only
// error the package returns is variant.ErrUnknownVariant from NormalizeTag.
package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/variant"
)

// Response is the canonical result of one upstream call. It is folded into a
// model.Message immediately and never persisted itself.
type Response struct {
	MainText      string
	ReasoningText string
	SearchResults []model.SearchResult
	OK            bool
	ErrorDetail   string

	// Echo is the raw payload with the nested search collection nulled out.
	// It is the only copy of the raw payload handed back to callers.
	Echo json.RawMessage
}

// NormalizeTag looks up tag and normalizes raw with its strategy.
func NormalizeTag(reg *variant.Registry, tag string, raw json.RawMessage) (Response, error) {
	v, err := reg.Lookup(tag)
	if err != nil {
		return Response{}, err
	}
	return Normalize(v, raw), nil
}

// Normalize converts raw into a Response using v's parse strategy.
func Normalize(v variant.Variant, raw json.RawMessage) Response {
	doc, err := decode(raw)
	if err != nil {
		return Response{ErrorDetail: "malformed upstream payload: " + err.Error()}
	}

	echo := echoOf(doc, raw)

	if detail, failed := upstreamFailure(doc); failed {
		return Response{ErrorDetail: detail, Echo: echo}
	}

	msg := messageOf(doc)
	resp := Response{OK: true, Echo: echo}

	switch v.Strategy {
	case variant.DirectFields:
		resp.MainText, resp.ReasoningText = directFields(msg)
	case variant.HeuristicSplit:
		resp.ReasoningText, resp.MainText = SplitHeuristic(contentText(msg["content"]))
	case variant.TaggedItems:
		resp.ReasoningText, resp.MainText = taggedItems(msg["content"])
	}

	if v.Search {
		resp.SearchResults = ExtractSearch(doc)
	}
	return resp
}

// decode parses raw keeping numbers exact so the echo round-trips them.
func decode(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// messageOf locates the message object inside the payload:
// choices[0].message if present, else the top-level object. A bare string or
// array is treated as the message content.
func messageOf(doc any) map[string]any {
	switch d := doc.(type) {
	case map[string]any:
		if choices, ok := d["choices"].([]any); ok && len(choices) > 0 {
			if first, ok := choices[0].(map[string]any); ok {
				if msg, ok := first["message"].(map[string]any); ok {
					return msg
				}
			}
		}
		return d
	case string, []any:
		return map[string]any{"content": d}
	}
	return map[string]any{}
}

// directFields copies content and reasoning verbatim. It never splits.
func directFields(msg map[string]any) (main, reasoning string) {
	main = contentText(msg["content"])
	for _, key := range []string{"reasoning_content", "reasoningContent"} {
		if s, ok := msg[key].(string); ok {
			reasoning = s
			break
		}
	}
	return main, reasoning
}

// contentText flattens a content field: a string is returned as is, an item
// list contributes its text items in order.
func contentText(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []any:
		var buf bytes.Buffer
		for _, it := range c {
			item, ok := it.(map[string]any)
			if !ok || item["type"] != "text" {
				continue
			}
			buf.WriteString(innerContent(item, "text"))
		}
		return buf.String()
	}
	return ""
}

// echoOf returns the payload with search evidence removed. Non-object payloads
// are echoed unchanged.
func echoOf(doc any, raw json.RawMessage) json.RawMessage {
	m, ok := doc.(map[string]any)
	if !ok {
		return append(json.RawMessage(nil), raw...)
	}
	stripped := make(map[string]any, len(m))
	for k, v := range m {
		stripped[k] = v
	}
	if _, ok := stripped["httpResult"]; ok {
		stripped["httpResult"] = nil
	}
	if data, ok := stripped["data"].(map[string]any); ok {
		if _, has := data["webPages"]; has {
			copied := make(map[string]any, len(data))
			for k, v := range data {
				copied[k] = v
			}
			copied["webPages"] = nil
			stripped["data"] = copied
		}
	}
	out, err := json.Marshal(stripped)
	if err != nil {
		return nil
	}
	return out
}
