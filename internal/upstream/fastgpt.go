// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jeranaias/seekchat/internal/variant"
)

// fastGPTPath is appended to a FastGPT base URL ending in /api.
const fastGPTPath = "/v1/chat/completions"

// fastGPTRequest is the workflow invocation body. detail=true makes the
// response carry the search node output (httpResult).
type fastGPTRequest struct {
	Stream    bool              `json:"stream"`
	Detail    bool              `json:"detail"`
	Variables map[string]string `json:"variables,omitempty"`
	Messages  []fastGPTMessage  `json:"messages"`
}

type fastGPTMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// callFastGPT invokes a FastGPT workflow app and returns the raw body.
func (c *Client) callFastGPT(ctx context.Context, v variant.Variant, key, text string) (json.RawMessage, error) {
	reqBody := fastGPTRequest{
		Stream:   false,
		Detail:   true,
		Messages: []fastGPTMessage{{Role: "user", Content: text}},
	}
	if v.Recipe.AppUID != "" || v.Recipe.AppName != "" {
		reqBody.Variables = map[string]string{
			"uid":  v.Recipe.AppUID,
			"name": v.Recipe.AppName,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &TransportError{Variant: v.Tag, Op: "encode", Err: err}
	}

	url := strings.TrimSuffix(v.Recipe.BaseURL, "/") + fastGPTPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &TransportError{Variant: v.Tag, Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return nil, &TransportError{Variant: v.Tag, Op: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, &TransportError{Variant: v.Tag, Op: "read", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failurePayload(resp.StatusCode, detailFromBody(resp.StatusCode, body)), nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &TransportError{Variant: v.Tag, Op: "read", Err: errors.New("empty response")}
	}
	return body, nil
}
