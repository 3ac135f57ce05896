// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lifecycle runs one question through its whole life: the upstream
// call, normalization, and the hand-off to the reveal engine.
//
// The Controller enforces single flight. All of its methods are meant to be
// called from one owner (the bubbletea Update loop or the REPL loop); only the
// upstream call runs elsewhere, inside the tea.Cmd returned by Send and
// Regenerate.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/normalize"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/storage"
	"github.com/jeranaias/seekchat/internal/variant"
)

// DefaultTimeout bounds one upstream call.
const DefaultTimeout = 3 * time.Minute

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when a request is already outstanding.
	ErrBusy = errors.New("a request is already in progress")

	// ErrEmptyInput is returned for blank questions.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotRegenerable is returned when the target is not an assistant
	// message directly following a user message.
	ErrNotRegenerable = errors.New("message cannot be regenerated")
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's request state.
type State int

const (
	Idle State = iota
	Sending
	Normalizing
	Aborting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Normalizing:
		return "normalizing"
	case Aborting:
		return "aborting"
	default:
		return "unknown"
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// UpstreamClient performs one call for a variant and returns the raw payload.
// Errors mean the transport failed; a payload describing an upstream failure
// is returned without error.
type UpstreamClient interface {
	Call(ctx context.Context, v variant.Variant, text string) (json.RawMessage, error)
}

// ResultMsg carries the outcome of an upstream call back to the owner.
type ResultMsg struct {
	Token   string
	Index   int
	Raw     json.RawMessage
	Err     error
	Elapsed time.Duration
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the request lifecycle state machine.
type Controller struct {
	mu sync.Mutex

	registry *variant.Registry
	store    *storage.Store
	client   UpstreamClient
	engine   *reveal.Engine
	timeout  time.Duration

	state   State
	token   string
	cancel  context.CancelFunc
	index   int
	variant variant.Variant

	revealPhase reveal.Phase
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// New creates an idle controller.
func New(reg *variant.Registry, store *storage.Store, client UpstreamClient, engine *reveal.Engine, opts ...Option) *Controller {
	if engine == nil {
		engine = reveal.NewEngine(reveal.DefaultInterval)
	}
	c := &Controller{
		registry: reg,
		store:    store,
		client:   client,
		engine:   engine,
		timeout:  DefaultTimeout,
		index:    -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the reveal engine the controller hands answers to.
func (c *Controller) Engine() *reveal.Engine { return c.engine }

// Store returns the conversation store.
func (c *Controller) Store() *storage.Store { return c.store }

// Registry returns the variant registry.
func (c *Controller) Registry() *variant.Registry { return c.registry }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is outstanding.
func (c *Controller) Busy() bool {
	return c.State() != Idle
}

// Outstanding returns the token and message index of the outstanding call.
func (c *Controller) Outstanding() (token string, index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		return "", -1, false
	}
	return c.token, c.index, true
}

// Send appends the user's question and a pending placeholder, and returns the
// command that performs the upstream call.
func (c *Controller) Send(text, tag string) (tea.Cmd, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return nil, ErrBusy
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	v, err := c.registry.Lookup(tag)
	if err != nil {
		return nil, err
	}

	c.finishRevealLocked()

	if _, err := c.store.Append(model.NewUserMessage(text)); err != nil && !isPersistError(err) {
		return nil, err
	}
	idx, err := c.store.Append(model.NewPlaceholder(v.Tag))
	if err != nil && !isPersistError(err) {
		return nil, err
	}

	return c.dispatchLocked(v, text, idx), nil
}

// Regenerate resets the assistant message at index to a pending placeholder
// and asks again with the preceding user message, using tag's recipe.
func (c *Controller) Regenerate(index int, tag string) (tea.Cmd, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return nil, ErrBusy
	}
	v, err := c.registry.Lookup(tag)
	if err != nil {
		return nil, err
	}

	target, err := c.store.Get(index)
	if err != nil || target.Role != model.RoleAssistant {
		return nil, fmt.Errorf("%w: index %d", ErrNotRegenerable, index)
	}
	question, err := c.store.Get(index - 1)
	if err != nil || question.Role != model.RoleUser {
		return nil, fmt.Errorf("%w: index %d", ErrNotRegenerable, index)
	}

	c.finishRevealLocked()

	if err := c.store.Replace(index, model.NewPlaceholder(v.Tag)); err != nil && !isPersistError(err) {
		return nil, err
	}

	log.Printf("REQUEST_REGENERATE | index=%d variant=%s", index, v.Tag)
	return c.dispatchLocked(v, question.MainText, index), nil
}

// RegenerateLast regenerates the most recent assistant message.
func (c *Controller) RegenerateLast(tag string) (tea.Cmd, error) {
	return c.Regenerate(c.store.Conversation().LastAssistantIndex(), tag)
}

// Abort cancels the outstanding call and finalizes its placeholder with the
// abort notice. Only valid while sending.
func (c *Controller) Abort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Sending {
		return false
	}
	c.state = Aborting
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	idx, token := c.index, c.token
	c.settleLocked(idx, func(m *model.Message) {
		m.Finalize(model.RevealAborted, model.NoticeAborted)
	})

	c.token = ""
	c.index = -1
	c.state = Idle
	log.Printf("REQUEST_ABORT | token=%s index=%d", token, idx)
	return true
}

// Resolve folds a finished call into the conversation. Results for anything
// other than the outstanding call are ignored. On success the reveal engine
// takes over and its first tick is returned.
func (c *Controller) Resolve(msg ResultMsg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Sending || msg.Token == "" || msg.Token != c.token {
		log.Printf("REQUEST_STALE | token=%s", msg.Token)
		return nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	idx, v := c.index, c.variant
	defer func() {
		c.token = ""
		c.index = -1
		c.state = Idle
	}()

	if msg.Err != nil {
		log.Printf("REQUEST_FAILED | token=%s variant=%s elapsed=%s error=%v", msg.Token, v.Tag, msg.Elapsed, msg.Err)
		c.settleLocked(idx, func(m *model.Message) {
			m.Finalize(model.RevealErrored, model.NoticeTransportFailure)
			m.ErrorDetail = msg.Err.Error()
		})
		return nil
	}

	c.state = Normalizing
	resp := normalize.Normalize(v, msg.Raw)
	if !resp.OK {
		log.Printf("REQUEST_UPSTREAM_ERROR | token=%s variant=%s detail=%q", msg.Token, v.Tag, resp.ErrorDetail)
		c.settleLocked(idx, func(m *model.Message) {
			m.Finalize(model.RevealErrored, model.NoticeUpstreamFailure)
			m.ErrorDetail = resp.ErrorDetail
		})
		return nil
	}

	answer, err := c.store.Get(idx)
	if err != nil {
		log.Printf("REQUEST_ORPHANED | token=%s index=%d", msg.Token, idx)
		return nil
	}
	answer.Variant = v.Tag
	answer.MainText = resp.MainText
	answer.ReasoningText = ""
	if v.Reasoning {
		answer.ReasoningText = resp.ReasoningText
	}
	answer.SearchResults = nil
	if v.Search {
		answer.SearchResults = resp.SearchResults
	}
	answer.ErrorDetail = ""
	answer.Timestamp = time.Now()

	session, flushed := c.engine.Start(answer)
	if flushed != nil {
		c.completeLocked(flushed.MessageID)
	}
	c.revealPhase = session.Phase
	if err := c.store.Replace(idx, answer); err != nil {
		log.Printf("REQUEST_STORE_FAILED | index=%d error=%v", idx, err)
	}

	log.Printf("REQUEST_DONE | token=%s variant=%s elapsed=%s reasoning=%d answer=%d sources=%d",
		msg.Token, v.Tag, msg.Elapsed, len(answer.ReasoningText), len(answer.MainText), len(answer.SearchResults))
	return c.engine.Tick()
}

// Advance applies a reveal tick. The message's stored reveal state follows
// the phase. It returns the frame to render and the next tick, if any.
func (c *Controller) Advance(tick reveal.TickMsg) (reveal.Snapshot, tea.Cmd, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.engine.Advance(tick.Gen)
	if !ok {
		return reveal.Snapshot{}, nil, false
	}
	if snap.Phase != c.revealPhase {
		c.revealPhase = snap.Phase
		state := snap.State()
		c.settleLocked(snap.MessageID, func(m *model.Message) { m.RevealState = state })
	}
	if !snap.Active {
		return snap, nil, true
	}
	return snap, c.engine.Tick(), true
}

// RunReveal drives the active reveal on a ticker until it completes, for
// front ends without a bubbletea loop. Cancelling ctx skips to the end. The
// stored reveal state follows the phase exactly as with Advance.
func (c *Controller) RunReveal(ctx context.Context, onFrame func(reveal.Snapshot)) {
	reveal.Drive(ctx, c.engine, func(snap reveal.Snapshot) {
		c.mu.Lock()
		if !snap.Active {
			c.revealPhase = reveal.PhaseComplete
			c.completeLocked(snap.MessageID)
		} else if snap.Phase != c.revealPhase {
			c.revealPhase = snap.Phase
			state := snap.State()
			c.settleLocked(snap.MessageID, func(m *model.Message) { m.RevealState = state })
		}
		c.mu.Unlock()

		if onFrame != nil {
			onFrame(snap)
		}
	})
}

// SkipReveal fast-forwards the active reveal to the end. It never touches an
// outstanding request.
func (c *Controller) SkipReveal() (reveal.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.engine.Cancel()
	if ok {
		c.completeLocked(snap.MessageID)
	}
	return snap, ok
}

// Reset aborts any outstanding call, finishes the reveal and starts a new
// conversation.
func (c *Controller) Reset() error {
	c.Abort()
	c.SkipReveal()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear()
}

// Settle aborts any outstanding call and finishes the reveal so the stored
// snapshot holds final states. Called before exit.
func (c *Controller) Settle() {
	c.Abort()
	c.SkipReveal()
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Controller) dispatchLocked(v variant.Variant, text string, idx int) tea.Cmd {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	token := uuid.NewString()
	c.token = token
	c.cancel = cancel
	c.index = idx
	c.variant = v
	c.state = Sending

	log.Printf("REQUEST_START | token=%s variant=%s index=%d chars=%d", token, v.Tag, idx, len([]rune(text)))

	client := c.client
	return func() tea.Msg {
		start := time.Now()
		raw, err := client.Call(ctx, v, text)
		return ResultMsg{Token: token, Index: idx, Raw: raw, Err: err, Elapsed: time.Since(start)}
	}
}

func (c *Controller) finishRevealLocked() {
	if snap, ok := c.engine.Cancel(); ok {
		c.completeLocked(snap.MessageID)
	}
}

func (c *Controller) completeLocked(index int) {
	c.settleLocked(index, func(m *model.Message) { m.RevealState = model.RevealComplete })
}

func (c *Controller) settleLocked(index int, fn func(*model.Message)) {
	if err := c.store.Update(index, fn); err != nil {
		log.Printf("STORE_UPDATE_FAILED | index=%d error=%v", index, err)
	}
}

// isPersistError distinguishes a failed snapshot write, which leaves the
// in-memory conversation intact, from a rejected mutation.
func isPersistError(err error) bool {
	return !errors.Is(err, storage.ErrInvalidMessage) && !errors.Is(err, storage.ErrIndexOutOfRange)
}
