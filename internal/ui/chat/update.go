// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/util"
	"github.com/jeranaias/seekchat/internal/variant"
)

// Update handles messages. It is the only place the controller is driven.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case lifecycle.ResultMsg:
		next := m.ctrl.Resolve(msg)
		m.syncFrame()
		m.refresh()
		return m, next

	case reveal.TickMsg:
		snap, next, ok := m.ctrl.Advance(msg)
		if !ok {
			return m, nil
		}
		if snap.Active {
			m.frame = &snap
		} else {
			m.frame = nil
		}
		m.refresh()
		return m, next

	case ConfigReloadedMsg:
		return m, m.applyConfig(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusLevel = statusInfo
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.ctrl.Busy() {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Settle()
		m.frame = nil
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Abort):
		if m.ctrl.Abort() {
			m.refresh()
			return m, m.setStatus("已停止", statusWarning)
		}
		if _, ok := m.ctrl.SkipReveal(); ok {
			m.frame = nil
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Regenerate):
		cmd, err := m.ctrl.RegenerateLast(m.tag)
		if err != nil {
			return m, m.reportError(err)
		}
		m.frame = nil
		m.refresh()
		m.viewport.GotoBottom()
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLastAnswer()

	case key.Matches(msg, m.keys.ToggleReasoning):
		m.reasoning = !m.reasoning
		return m, m.selectVariant(variant.Select(m.reasoning, m.search))

	case key.Matches(msg, m.keys.ToggleSearch):
		m.search = !m.search
		return m, m.selectVariant(variant.Select(m.reasoning, m.search))

	case key.Matches(msg, m.keys.CollapseThought):
		m.showReasoning = !m.showReasoning
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		if err := m.ctrl.Reset(); err != nil {
			log.Printf("CHAT_RESET_FAILED | error=%v", err)
		}
		m.frame = nil
		m.markdown.Reset()
		m.refresh()
		return m, m.setStatus("新对话", statusInfo)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	cmd, err := m.ctrl.Send(m.input.Value(), m.tag)
	if errors.Is(err, lifecycle.ErrEmptyInput) {
		return m, nil
	}
	if err != nil {
		return m, m.reportError(err)
	}
	m.input.Reset()
	m.frame = nil
	m.refresh()
	m.viewport.GotoBottom()
	return m, cmd
}

// selectVariant switches the variant for the next question and remembers it.
func (m *Model) selectVariant(tag string) tea.Cmd {
	m.tag = tag
	if m.saveVariant == nil {
		return nil
	}
	if err := m.saveVariant(tag); err != nil {
		log.Printf("VARIANT_SAVE_FAILED | variant=%s error=%v", tag, err)
		return m.setStatus("无法保存模型选择: "+err.Error(), statusWarning)
	}
	return nil
}

// copyLastAnswer puts the full text of the latest answer on the clipboard,
// even while it is still being revealed.
func (m *Model) copyLastAnswer() tea.Cmd {
	store := m.ctrl.Store()
	msg, err := store.Get(store.Conversation().LastAssistantIndex())
	if err != nil || !msg.Answered() {
		return m.setStatus("没有可以复制的回答", statusWarning)
	}
	if err := m.copyText(msg.MainText); err != nil {
		log.Printf("CLIPBOARD_FAILED | error=%v", err)
		return m.setStatus("复制失败: "+err.Error(), statusError)
	}
	return m.setStatus(fmt.Sprintf("已复制 %d 字", util.RuneLen(msg.MainText)), statusSuccess)
}

func (m *Model) reportError(err error) tea.Cmd {
	switch {
	case errors.Is(err, lifecycle.ErrBusy):
		return m.setStatus("正在生成回答，请稍候", statusError)
	case errors.Is(err, lifecycle.ErrNotRegenerable):
		return m.setStatus("没有可以重新生成的回答", statusError)
	default:
		log.Printf("CHAT_ACTION_FAILED | error=%v", err)
		return m.setStatus(err.Error(), statusError)
	}
}

// syncFrame picks up a reveal the controller just started.
func (m *Model) syncFrame() {
	snap := m.ctrl.Engine().Snapshot()
	if snap.Active {
		m.frame = &snap
	} else {
		m.frame = nil
	}
}

// applyConfig applies the reloadable settings: reveal pacing and display.
func (m *Model) applyConfig(msg ConfigReloadedMsg) tea.Cmd {
	if msg.Err != nil {
		return m.setStatus("配置文件无效: "+msg.Err.Error(), statusError)
	}
	cfg := msg.Config
	engine := m.ctrl.Engine()
	engine.SetInterval(cfg.RevealInterval())
	engine.SetEnabled(cfg.Reveal.Enabled)
	m.useMarkdown = cfg.UI.Markdown
	m.showReasoning = cfg.UI.ShowReasoning
	m.refresh()
	return m.setStatus("配置已重新加载", statusInfo)
}
