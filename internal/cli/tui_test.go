// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/oranges-tui/internal/engine"
	"github.com/jeranaias/oranges-tui/internal/logging"
	"github.com/jeranaias/oranges-tui/internal/model"
)

func newTestTUI(t *testing.T) (tuiModel, *engine.Engine) {
	t.Helper()
	clk := clockwork.NewFakeClockAt(testEpoch)
	e := engine.New(engine.Config{
		DefaultModel: model.FastJuices,
		Clock:        clk,
		Logger:       logging.Discard(),
	})
	e.OnChange(autoAdvance(clk))
	t.Cleanup(e.Close)
	return newTUIModel(context.Background(), e, false), e
}

// runCmd executes cmd and any batched commands, returning their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, runCmd(c)...)
	}
	return msgs
}

// typeLine enters text and presses Enter.
func typeLine(m tuiModel, text string) (tuiModel, tea.Cmd) {
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(tuiModel), cmd
}

// deliver feeds every message produced by cmd back into m.
func deliver(t *testing.T, m tuiModel, cmd tea.Cmd) tuiModel {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		next, _ := m.Update(msg)
		m = next.(tuiModel)
	}
	return m
}

func TestTUI_SubmitAndReply(t *testing.T) {
	m, e := newTestTUI(t)

	m, cmd := typeLine(m, "Hello oranges")
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "You: Hello oranges")
	assert.Contains(t, m.View(), "Fast Juices is thinking...")

	m = deliver(t, m, cmd)
	assert.False(t, m.waiting)
	assert.Contains(t, m.View(), "Fast Juices: "+model.FastJuices.Response())
	assert.NotContains(t, m.View(), "thinking")
	assert.True(t, e.Snapshot().IsIdle())
}

func TestTUI_RejectsSecondSubmissionWhileWaiting(t *testing.T) {
	m, e := newTestTUI(t)

	m, first := typeLine(m, "one")
	m, second := typeLine(m, "two")
	assert.Nil(t, second)
	assert.Contains(t, m.View(), "[Waiting]")

	m = deliver(t, m, first)
	require.Len(t, e.Snapshot().Active.Messages, 2)
	assert.Contains(t, m.View(), "Fast Juices: "+model.FastJuices.Response())
}

func TestTUI_ModelSwitchCreditsReply(t *testing.T) {
	m, e := newTestTUI(t)

	m, cmd := typeLine(m, "first")
	m = deliver(t, m, cmd)

	m, cmd = typeLine(m, "/model 3")
	assert.Nil(t, cmd)
	assert.Equal(t, model.Juices, e.SelectedModel())
	assert.Contains(t, m.View(), "Switched to Juices")

	m, cmd = typeLine(m, "second")
	m = deliver(t, m, cmd)
	assert.Contains(t, m.View(), "Juices: "+model.Juices.Response())
	assert.NotContains(t, m.View(), "Fast Juices: "+model.Juices.Response())
	assert.Contains(t, m.View(), "[Juices]")
}

func TestTUI_Commands(t *testing.T) {
	m, e := newTestTUI(t)

	m, cmd := typeLine(m, "hello")
	m = deliver(t, m, cmd)

	m, _ = typeLine(m, "/new")
	assert.Empty(t, m.lines)
	assert.Nil(t, e.Snapshot().Active)

	m, _ = typeLine(m, "/model lemonade")
	assert.Contains(t, m.View(), "[Error]")

	m, _ = typeLine(m, "/juice")
	assert.Contains(t, m.View(), "unknown command: /juice")

	_, cmd = typeLine(m, "/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTUI_EscQuits(t *testing.T) {
	m, _ := newTestTUI(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTUI_CanceledWaitQuits(t *testing.T) {
	m, _ := newTestTUI(t)
	m.waiting = true

	next, cmd := m.Update(engine.ReplyMsg{Err: context.Canceled})
	assert.False(t, next.(tuiModel).waiting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTUI_SpinnerIdleTickDropped(t *testing.T) {
	m, _ := newTestTUI(t)
	_, cmd := m.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)
}
