// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upstream performs the network call behind each variant.
//
// Two transports exist: OpenAI-compatible chat completions (DeepSeek and the
// one-api gateway) and FastGPT workflow apps (search-augmented variants). Both
// return the raw response body. Failures the provider reports about itself
// come back as a payload, so they reach the normalizer as data; only a call
// that never produced a usable response is an error.
package upstream

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/seekchat/internal/util"
	"github.com/jeranaias/seekchat/internal/variant"
)

const (
	// MaxResponseSize caps a response body.
	MaxResponseSize = 10 * 1024 * 1024

	// maxDetailRunes caps error text lifted out of a response body.
	maxDetailRunes = 300
)

// ErrMissingKey is returned when no API key is configured for a variant.
var ErrMissingKey = errors.New("API key not configured")

// sharedHTTPClient pools connections for every transport. Deadlines come from
// the request context.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// ERRORS
// =============================================================================

// TransportError reports a call that produced no usable response: network
// failure, cancellation, timeout or a missing key.
type TransportError struct {
	Variant string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream %s: %s: %v", e.Variant, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a TransportError.
func (e *TransportError) Is(target error) bool {
	_, ok := target.(*TransportError)
	return ok
}

// =============================================================================
// CLIENT
// =============================================================================

// Client dispatches a variant's recipe to its transport.
type Client struct {
	httpClient *http.Client
	lookupKey  func(envVar string) string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithKeyLookup resolves API keys by environment variable name. The default
// is os.Getenv.
func WithKeyLookup(fn func(envVar string) string) Option {
	return func(c *Client) { c.lookupKey = fn }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: sharedHTTPClient,
		lookupKey:  os.Getenv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs exactly one request for v. No retries.
func (c *Client) Call(ctx context.Context, v variant.Variant, text string) (json.RawMessage, error) {
	key := c.apiKey(v)
	if key == "" {
		return nil, &TransportError{Variant: v.Tag, Op: "auth", Err: fmt.Errorf("%w (%s)", ErrMissingKey, v.Recipe.KeyEnv)}
	}

	log.Printf("UPSTREAM_REQUEST | variant=%s transport=%s model=%s key=%s",
		v.Tag, v.Recipe.Transport, recipeTarget(v), keyFingerprint(key))
	start := time.Now()

	var (
		raw json.RawMessage
		err error
	)
	switch v.Recipe.Transport {
	case variant.TransportOpenAI:
		raw, err = c.callOpenAI(ctx, v, key, text)
	case variant.TransportFastGPT:
		raw, err = c.callFastGPT(ctx, v, key, text)
	default:
		err = &TransportError{Variant: v.Tag, Op: "dispatch", Err: fmt.Errorf("unsupported transport %q", v.Recipe.Transport)}
	}

	if err != nil {
		log.Printf("UPSTREAM_ERROR | variant=%s elapsed=%s error=%v", v.Tag, time.Since(start), err)
		return nil, err
	}
	log.Printf("UPSTREAM_RESPONSE | variant=%s elapsed=%s bytes=%d", v.Tag, time.Since(start), len(raw))
	return raw, nil
}

func (c *Client) apiKey(v variant.Variant) string {
	if v.Recipe.APIKey != "" {
		return v.Recipe.APIKey
	}
	if v.Recipe.KeyEnv == "" || c.lookupKey == nil {
		return ""
	}
	return strings.TrimSpace(c.lookupKey(v.Recipe.KeyEnv))
}

func recipeTarget(v variant.Variant) string {
	if v.Recipe.Model != "" {
		return v.Recipe.Model
	}
	return v.Recipe.AppName
}

// =============================================================================
// HELPERS
// =============================================================================

// keyFingerprint identifies a key in logs without exposing any part of it.
func keyFingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// readResponse reads a body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// failurePayload builds the payload used to hand a provider-reported failure
// to the normalizer.
func failurePayload(status int, detail string) json.RawMessage {
	body := map[string]any{
		"success": false,
		"error":   detail,
	}
	if status > 0 {
		body["details"] = fmt.Sprintf("HTTP %d", status)
	}
	out, _ := json.Marshal(body)
	return out
}

// detailFromBody lifts a human-readable message out of an error body.
func detailFromBody(status int, body []byte) string {
	var doc map[string]any
	if json.Unmarshal(body, &doc) == nil {
		if s, ok := doc["message"].(string); ok && s != "" {
			return s
		}
		switch e := doc["error"].(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if s, ok := e["message"].(string); ok && s != "" {
				return s
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return util.TruncateRunes(util.OneLine(text), maxDetailRunes)
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "upstream error"
}
