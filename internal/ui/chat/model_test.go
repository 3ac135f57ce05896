// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/seekchat/internal/config"
	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/storage"
	"github.com/jeranaias/seekchat/internal/ui/styles"
	"github.com/jeranaias/seekchat/internal/variant"
)

// =============================================================================
// FAKES AND HELPERS
// =============================================================================

type fakeClient struct {
	mu    sync.Mutex
	raw   json.RawMessage
	err   error
	block bool
	tags  []string
}

func (f *fakeClient) Call(ctx context.Context, v variant.Variant, _ string) (json.RawMessage, error) {
	f.mu.Lock()
	f.tags = append(f.tags, v.Tag)
	raw, err, block := f.raw, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return raw, err
}

func payload(content, reasoning string) json.RawMessage {
	msg := map[string]any{"role": "assistant", "content": content}
	if reasoning != "" {
		msg["reasoning_content"] = reasoning
	}
	b, _ := json.Marshal(map[string]any{"choices": []any{map[string]any{"message": msg}}})
	return b
}

// newModel builds a sized chat model over an in-memory store. animate controls
// whether answers are revealed through ticks.
func newModel(t *testing.T, client *fakeClient, animate bool, opts ...Option) Model {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.NewMemoryBackend())
	require.NoError(t, err)

	engine := reveal.NewEngine(time.Millisecond)
	engine.SetEnabled(animate)
	ctrl := lifecycle.New(variant.Default(), store, client, engine)

	noClipboard := func(string) error { return nil }
	opts = append([]Option{WithTheme(styles.NewThemeMode("dark")), WithMarkdown(false), WithClipboard(noClipboard)}, opts...)
	m := New(ctrl, opts...)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update must return a chat.Model")
	return out, cmd
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	return update(t, m, tea.KeyMsg{Type: k})
}

// ask types text, presses Enter and resolves the resulting call.
func ask(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd, "submit should return the upstream call")

	result, ok := cmd().(lifecycle.ResultMsg)
	require.True(t, ok)
	return update(t, m, result)
}

func lastMessage(t *testing.T, m Model) *model.Message {
	t.Helper()
	msgs := m.ctrl.Store().Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

// =============================================================================
// REQUEST FLOW
// =============================================================================

func TestSubmitAndResolve(t *testing.T) {
	client := &fakeClient{raw: payload("你好！我是 DeepSeek。", "")}
	m := newModel(t, client, false)

	m, next := ask(t, m, "你好")
	assert.Nil(t, next, "no reveal ticks when animation is off")

	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, 2, m.ctrl.Store().Len())
	assert.Equal(t, model.RevealComplete, lastMessage(t, m).RevealState)

	view := m.View()
	assert.Contains(t, view, "你好")
	assert.Contains(t, view, "DeepSeek。")
}

func TestEmptySubmitIsIgnored(t *testing.T) {
	m := newModel(t, &fakeClient{}, false)
	m.input.SetValue("   ")
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.ctrl.Store().Len())
}

func TestBusySubmitShowsStatus(t *testing.T) {
	m := newModel(t, &fakeClient{block: true}, false)
	m.input.SetValue("第一个问题")
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)

	m.input.SetValue("第二个问题")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, statusError, m.statusLevel)
	assert.Equal(t, "第二个问题", m.input.Value(), "input is kept when the send is refused")
	assert.Equal(t, 2, m.ctrl.Store().Len())

	m.ctrl.Settle()
}

func TestAbortWhileSending(t *testing.T) {
	m := newModel(t, &fakeClient{block: true}, false)
	m.input.SetValue("会被停止的问题")
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "正在请求")

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, lifecycle.Idle, m.ctrl.State())

	last := lastMessage(t, m)
	assert.Equal(t, model.RevealAborted, last.RevealState)
	assert.Contains(t, m.View(), model.NoticeAborted)

	// The cancelled call still reports back; it must be ignored.
	result := cmd().(lifecycle.ResultMsg)
	m, next := update(t, m, result)
	assert.Nil(t, next)
	assert.Equal(t, model.RevealAborted, lastMessage(t, m).RevealState)
}

func TestTransportFailureRendersNotice(t *testing.T) {
	m := newModel(t, &fakeClient{err: errors.New("connection refused")}, false)
	m, _ = ask(t, m, "你好")

	last := lastMessage(t, m)
	assert.Equal(t, model.RevealErrored, last.RevealState)
	view := m.View()
	assert.Contains(t, view, model.NoticeTransportFailure)
	assert.Contains(t, view, "connection refused")
}

func TestRegenerateLast(t *testing.T) {
	client := &fakeClient{raw: payload("第一次回答", "")}
	m := newModel(t, client, false)
	m, _ = ask(t, m, "问题")

	client.mu.Lock()
	client.raw = payload("第二次回答", "")
	client.mu.Unlock()

	m, cmd := press(t, m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, 2, m.ctrl.Store().Len(), "regenerate replaces in place")
	assert.Equal(t, "第二次回答", lastMessage(t, m).MainText)
}

func TestRegenerateWithoutAnswer(t *testing.T) {
	m := newModel(t, &fakeClient{}, false)
	m, cmd := press(t, m, tea.KeyCtrlR)
	assert.NotNil(t, cmd, "status clear is scheduled")
	assert.Equal(t, statusError, m.statusLevel)
}

// =============================================================================
// REVEAL
// =============================================================================

func TestRevealRunsToCompletion(t *testing.T) {
	client := &fakeClient{raw: payload("答案", "先想一想")}
	m := newModel(t, client, true, WithVariant(variant.TagReasoningLarge))

	m, next := ask(t, m, "问题")
	require.NotNil(t, next, "reveal should schedule its first tick")
	require.NotNil(t, m.frame)

	sawReasoning := false
	for i := 0; next != nil && i < 100; i++ {
		m, next = update(t, m, next())
		if m.frame != nil && m.frame.Phase == reveal.PhaseReasoning {
			sawReasoning = true
		}
	}
	assert.Nil(t, next)
	assert.Nil(t, m.frame)
	assert.True(t, sawReasoning)

	last := lastMessage(t, m)
	assert.Equal(t, model.RevealComplete, last.RevealState)
	assert.Equal(t, "先想一想", last.ReasoningText)
	assert.Contains(t, m.View(), "先想一想")
}

func TestEscSkipsReveal(t *testing.T) {
	client := &fakeClient{raw: payload("一段很长很长的回答", "")}
	m := newModel(t, client, true)

	m, next := ask(t, m, "问题")
	require.NotNil(t, next)

	m, _ = press(t, m, tea.KeyEsc)
	assert.Nil(t, m.frame)
	assert.Equal(t, model.RevealComplete, lastMessage(t, m).RevealState)
	assert.Contains(t, m.View(), "一段很长很长的回答")

	// The pending tick belongs to a finished session and is dropped.
	m, stale := update(t, m, next())
	assert.Nil(t, stale)
}

// =============================================================================
// TOGGLES AND DISPLAY
// =============================================================================

func TestToggles(t *testing.T) {
	m := newModel(t, &fakeClient{}, false)
	assert.Equal(t, variant.TagPlain, m.Variant())

	m, _ = press(t, m, tea.KeyCtrlT)
	assert.Equal(t, variant.TagReasoningLarge, m.Variant())

	m, _ = press(t, m, tea.KeyCtrlS)
	assert.Equal(t, variant.TagReasoningLargeSearch, m.Variant())

	m, _ = press(t, m, tea.KeyCtrlT)
	assert.Equal(t, variant.TagPlainSearch, m.Variant())
}

func TestTogglesAreRemembered(t *testing.T) {
	var saved []string
	saver := func(tag string) error {
		saved = append(saved, tag)
		return nil
	}
	m := newModel(t, &fakeClient{}, false, WithVariantSaver(saver))

	m, _ = press(t, m, tea.KeyCtrlT)
	m, _ = press(t, m, tea.KeyCtrlS)
	assert.Equal(t, []string{variant.TagReasoningLarge, variant.TagReasoningLargeSearch}, saved)
	assert.Empty(t, m.status)
}

func TestToggleSaveFailureKeepsSelection(t *testing.T) {
	saver := func(string) error { return errors.New("read-only file system") }
	m := newModel(t, &fakeClient{}, false, WithVariantSaver(saver))

	m, cmd := press(t, m, tea.KeyCtrlS)
	assert.NotNil(t, cmd)
	assert.Equal(t, variant.TagPlainSearch, m.Variant(), "the toggle applies to this session anyway")
	assert.Equal(t, statusWarning, m.statusLevel)
	assert.Contains(t, m.status, "read-only")
}

func TestWithVariantKeepsUnreachableTag(t *testing.T) {
	m := newModel(t, &fakeClient{}, false, WithVariant(variant.TagReasoningSmall))
	assert.Equal(t, variant.TagReasoningSmall, m.Variant())
	assert.True(t, m.reasoning)
	assert.False(t, m.search)
}

func TestCollapseReasoning(t *testing.T) {
	client := &fakeClient{raw: payload("答案", "推理过程")}
	m := newModel(t, client, false, WithVariant(variant.TagReasoningLarge))
	m, _ = ask(t, m, "问题")
	assert.Contains(t, m.View(), "推理过程")

	m, _ = press(t, m, tea.KeyTab)
	view := m.View()
	assert.NotContains(t, view, "推理过程")
	assert.Contains(t, view, "Tab 展开")
}

func TestSourcesRendered(t *testing.T) {
	raw := json.RawMessage(`{
		"choices":[{"message":{"role":"assistant","content":"答案"}}],
		"httpResult":{"data":{"webPages":{"value":[
			{"name":"示例标题","url":"https://example.com/a","summary":"摘要","siteName":"示例站点"}
		]}}}
	}`)
	m := newModel(t, &fakeClient{raw: raw}, false, WithVariant(variant.TagPlainSearch))
	m, _ = ask(t, m, "问题")

	view := m.View()
	assert.Contains(t, view, "参考来源 (1)")
	assert.Contains(t, view, "示例标题")
	assert.Contains(t, view, "https://example.com/a")
}

func TestCopyLastAnswer(t *testing.T) {
	var copied []string
	clip := func(text string) error {
		copied = append(copied, text)
		return nil
	}
	client := &fakeClient{raw: payload("第一个答案", "")}
	m := newModel(t, client, false, WithClipboard(clip))

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Empty(t, copied, "nothing to copy yet")
	assert.Equal(t, statusWarning, m.statusLevel)

	m, _ = ask(t, m, "问题")
	client.mu.Lock()
	client.raw = payload("第二个答案", "不会被复制的思考")
	client.mu.Unlock()
	m, _ = ask(t, m, "另一个问题")

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Equal(t, []string{"第二个答案"}, copied)
	assert.Equal(t, statusSuccess, m.statusLevel)
	assert.Contains(t, m.View(), "已复制")
}

func TestCopySkipsFailedAnswer(t *testing.T) {
	var copied []string
	clip := func(text string) error {
		copied = append(copied, text)
		return nil
	}
	m := newModel(t, &fakeClient{err: errors.New("connection refused")}, false, WithClipboard(clip))
	m, _ = ask(t, m, "问题")

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Empty(t, copied, "a failure notice is not an answer")
	assert.Equal(t, statusWarning, m.statusLevel)
}

func TestCopyReportsClipboardError(t *testing.T) {
	clip := func(string) error { return errors.New("no clipboard utility") }
	m := newModel(t, &fakeClient{raw: payload("答案", "")}, false, WithClipboard(clip))
	m, _ = ask(t, m, "问题")

	m, _ = press(t, m, tea.KeyCtrlY)
	assert.Equal(t, statusError, m.statusLevel)
	assert.Contains(t, m.status, "no clipboard utility")
}

func TestNarrowLayoutDropsBadge(t *testing.T) {
	m := newModel(t, &fakeClient{}, false)
	assert.Contains(t, m.renderHeader(), "DeepSeek-V3")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 50, Height: 20})
	header := m.renderHeader()
	assert.NotContains(t, header, "DeepSeek-V3")
	assert.Contains(t, header, "深度思考")
}

func TestNewChatClears(t *testing.T) {
	m := newModel(t, &fakeClient{raw: payload("答案", "")}, false)
	m, _ = ask(t, m, "问题")
	require.Equal(t, 2, m.ctrl.Store().Len())

	m, _ = press(t, m, tea.KeyCtrlN)
	assert.Equal(t, 0, m.ctrl.Store().Len())
	assert.Contains(t, m.View(), "很高兴见到你")
}

func TestConfigReload(t *testing.T) {
	m := newModel(t, &fakeClient{}, true)

	cfg := config.Default()
	cfg.Reveal.IntervalMs = 50
	cfg.Reveal.Enabled = false
	cfg.UI.ShowReasoning = false

	m, _ = update(t, m, ConfigReloadedMsg{Config: cfg})
	assert.Equal(t, 50*time.Millisecond, m.ctrl.Engine().Interval())
	assert.False(t, m.showReasoning)
	assert.Equal(t, statusInfo, m.statusLevel)

	m, _ = update(t, m, ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.Equal(t, statusError, m.statusLevel)
	assert.Equal(t, 50*time.Millisecond, m.ctrl.Engine().Interval(), "a broken file changes nothing")
}

func TestStatusClears(t *testing.T) {
	m := newModel(t, &fakeClient{}, false)
	m, _ = press(t, m, tea.KeyCtrlR)
	require.NotEmpty(t, m.status)

	m, _ = update(t, m, clearStatusMsg{seq: m.statusSeq - 1})
	assert.NotEmpty(t, m.status, "an older clear must not remove a newer status")

	m, _ = update(t, m, clearStatusMsg{seq: m.statusSeq})
	assert.Empty(t, m.status)
}

func TestQuitSettles(t *testing.T) {
	m := newModel(t, &fakeClient{block: true}, false)
	m.input.SetValue("问题")
	m, _ = press(t, m, tea.KeyEnter)

	m, cmd := press(t, m, tea.KeyCtrlC)
	assert.NotNil(t, cmd)
	assert.True(t, m.Quitting())
	assert.Equal(t, lifecycle.Idle, m.ctrl.State())
	assert.Equal(t, model.RevealAborted, lastMessage(t, m).RevealState)
	assert.Empty(t, m.View())
}

func TestMarkdownAnswer(t *testing.T) {
	m := newModel(t, &fakeClient{raw: payload("这是**粗体**文字", "")}, false, WithMarkdown(true))
	m, _ = ask(t, m, "问题")

	view := m.View()
	assert.Contains(t, view, "粗体")
	assert.NotContains(t, view, "**粗体**")
}
