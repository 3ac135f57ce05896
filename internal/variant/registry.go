// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package variant holds the static table of model/search combinations.
package variant

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// PARSE STRATEGY
// =============================================================================

// ParseStrategy selects how a variant's upstream payload is normalized.
type ParseStrategy int

const (
	// DirectFields: upstream already separates content and reasoning_content.
	DirectFields ParseStrategy = iota
	// HeuristicSplit: one concatenated text field holds reasoning and answer.
	HeuristicSplit
	// TaggedItems: upstream returns a list of typed items ("reasoning", "text").
	TaggedItems
)

// String returns the strategy name.
func (s ParseStrategy) String() string {
	switch s {
	case DirectFields:
		return "DIRECT_FIELDS"
	case HeuristicSplit:
		return "HEURISTIC_SPLIT"
	case TaggedItems:
		return "TAGGED_ITEMS"
	default:
		return fmt.Sprintf("ParseStrategy(%d)", int(s))
	}
}

// Transport names the wire protocol a recipe speaks.
type Transport string

const (
	// TransportOpenAI is an OpenAI-compatible /chat/completions endpoint.
	TransportOpenAI Transport = "openai"
	// TransportFastGPT is a FastGPT workflow app (search-augmented).
	TransportFastGPT Transport = "fastgpt"
)

// =============================================================================
// VARIANT TYPE
// =============================================================================

// Recipe describes the network call a variant needs.
type Recipe struct {
	Transport    Transport
	BaseURL      string
	Model        string
	KeyEnv       string // environment variable holding the bearer key
	APIKey       string // resolved key, filled from config
	SystemPrompt string
	Temperature  float64
	MaxTokens    int

	// FastGPT workflow variables
	AppUID  string
	AppName string
}

// Variant is one registry row.
type Variant struct {
	Tag         string
	DisplayName string
	Strategy    ParseStrategy
	Reasoning   bool // model emits chain-of-thought
	Search      bool // payload carries web-search evidence
	Recipe      Recipe
}

// ErrUnknownVariant is returned when a tag is not registered.
// It is a configuration defect, never a transient failure.
var ErrUnknownVariant = errors.New("unknown variant")

// Registered tags.
const (
	TagPlain                = "plain"
	TagReasoningLarge       = "reasoning-large"
	TagReasoningSmall       = "reasoning-small"
	TagPlainSearch          = "plain+search"
	TagReasoningLargeSearch = "reasoning-large+search"
)

// Default upstream base URLs.
const (
	DefaultDeepSeekURL = "https://api.deepseek.com/v1"
	DefaultOneAPIURL   = "http://106.12.4.186:3001/v1"
	DefaultFastGPTURL  = "http://106.12.4.186:3000/api"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is an immutable, ordered table of variants.
type Registry struct {
	order []string
	rows  map[string]Variant
}

// New builds a registry from rows. Duplicate tags are a programming error.
func New(rows ...Variant) *Registry {
	r := &Registry{rows: make(map[string]Variant, len(rows))}
	for _, v := range rows {
		if _, dup := r.rows[v.Tag]; dup {
			panic("variant: duplicate tag " + v.Tag)
		}
		r.order = append(r.order, v.Tag)
		r.rows[v.Tag] = v
	}
	return r
}

// Default returns the built-in table.
func Default() *Registry {
	return New(builtin()...)
}

// Lookup returns the variant for tag or ErrUnknownVariant.
func (r *Registry) Lookup(tag string) (Variant, error) {
	v, ok := r.rows[tag]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, tag)
	}
	return v, nil
}

// MustLookup is Lookup for tags known at compile time.
func (r *Registry) MustLookup(tag string) Variant {
	v, err := r.Lookup(tag)
	if err != nil {
		panic(err)
	}
	return v
}

// Tags returns registered tags in table order.
func (r *Registry) Tags() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns the rows in table order.
func (r *Registry) All() []Variant {
	out := make([]Variant, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.rows[tag])
	}
	return out
}

// Select maps the UI's two toggles (deep think, web search) to a tag.
func Select(reasoning, search bool) string {
	switch {
	case reasoning && search:
		return TagReasoningLargeSearch
	case reasoning:
		return TagReasoningLarge
	case search:
		return TagPlainSearch
	default:
		return TagPlain
	}
}

// Toggles is the inverse of Select for registered tags.
func Toggles(tag string) (reasoning, search bool) {
	return strings.HasPrefix(tag, "reasoning"), strings.HasSuffix(tag, "+search")
}

// Endpoint overrides one recipe's base URL and key.
type Endpoint struct {
	BaseURL string
	APIKey  string
}

// WithEndpoints returns a copy of r with recipe overrides applied per transport
// group. Keys of overrides are "deepseek", "oneapi" and "fastgpt".
func (r *Registry) WithEndpoints(overrides map[string]Endpoint) *Registry {
	rows := r.All()
	for i := range rows {
		ep, ok := overrides[group(rows[i])]
		if !ok {
			continue
		}
		if ep.BaseURL != "" {
			rows[i].Recipe.BaseURL = strings.TrimSuffix(ep.BaseURL, "/")
		}
		if ep.APIKey != "" {
			rows[i].Recipe.APIKey = ep.APIKey
		}
	}
	return New(rows...)
}

// group names the endpoint a recipe talks to.
func group(v Variant) string {
	switch {
	case v.Recipe.Transport == TransportFastGPT:
		return "fastgpt"
	case v.Recipe.KeyEnv == "ONEAPI_API_KEY":
		return "oneapi"
	default:
		return "deepseek"
	}
}
