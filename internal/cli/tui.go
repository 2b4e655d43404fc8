// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/oranges-tui/internal/engine"
	"github.com/jeranaias/oranges-tui/internal/model"
)

// =============================================================================
// TUI COMMAND
// =============================================================================

func (app *App) addTUICommand(rootCmd *cobra.Command) {
	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat",
		Long: `Start a full-screen chat. Enter sends, /model switches models, /new
starts a fresh conversation and Esc or Ctrl+C quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTUI(cmd.Context())
		},
	}
	rootCmd.AddCommand(tuiCmd)
}

func (app *App) runTUI(ctx context.Context) error {
	e := app.newEngine()
	defer e.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	timestamps := app.Config != nil && app.Config.UI.ShowTimestamps
	p := tea.NewProgram(
		newTUIModel(ctx, e, timestamps),
		tea.WithContext(ctx),
		tea.WithInput(app.In),
		tea.WithOutput(app.Out),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

// =============================================================================
// TUI MODEL
// =============================================================================

// tuiModel is the Bubble Tea model behind the tui command. Submissions go
// through engine.SubmitCmd and replies come back as engine.ReplyMsg.
type tuiModel struct {
	ctx    context.Context
	engine *engine.Engine

	input   textinput.Model
	spinner spinner.Model

	lines      []string
	waiting    bool
	pending    model.Model
	timestamps bool
	width      int
}

func newTUIModel(ctx context.Context, e *engine.Engine, timestamps bool) tuiModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return tuiModel{
		ctx:        ctx,
		engine:     e,
		input:      ti,
		spinner:    sp,
		timestamps: timestamps,
	}
}

// Init starts the cursor blinking.
func (m tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses, replies and spinner ticks.
func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case engine.ReplyMsg:
		return m.handleReply(msg)

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}

	if m.waiting {
		m.lines = append(m.lines, WarningStyle.Render("[Waiting] a reply is still pending"))
		return m, nil
	}

	pending := m.engine.SelectedModel()
	cmd := engine.SubmitCmd(m.ctx, m.engine, text)
	if cmd == nil {
		return m, nil
	}
	// The reply may already have landed, so find the user message by role.
	if msg := lastUserMessage(m.engine.Snapshot().Active); msg != nil {
		m.lines = append(m.lines, formatMessage(pending, msg, m.timestamps))
	}
	m.waiting = true
	m.pending = pending
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m tuiModel) handleCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)
	switch parts[0] {
	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/new", "/n":
		if !m.engine.NewSession() {
			m.lines = append(m.lines, WarningStyle.Render("[Waiting] a reply is still pending"))
			return m, nil
		}
		m.lines = nil
		return m, nil

	case "/model", "/m":
		if len(parts) < 2 {
			m.lines = append(m.lines, ErrorStyle.Render("[Error] usage: /model <name|number>"))
			return m, nil
		}
		sel, err := model.ParseModel(strings.Join(parts[1:], " "))
		if err == nil {
			err = m.engine.SelectModel(sel)
		}
		if err != nil {
			m.lines = append(m.lines, ErrorStyle.Render("[Error] "+err.Error()))
			return m, nil
		}
		m.lines = append(m.lines, SuccessStyle.Render("Switched to "+sel.DisplayName()))
		return m, nil
	}

	m.lines = append(m.lines, ErrorStyle.Render("[Error] unknown command: "+parts[0]))
	return m, nil
}

func (m tuiModel) handleReply(msg engine.ReplyMsg) (tea.Model, tea.Cmd) {
	m.waiting = false
	if msg.Err != nil {
		return m, tea.Quit
	}
	if last := lastMessage(msg.Snapshot.Active); last != nil && last.Role == model.RoleAssistant {
		m.lines = append(m.lines, formatMessage(msg.Snapshot.Active.Model, last, m.timestamps))
	}
	return m, nil
}

func lastUserMessage(conv *model.Conversation) *model.Message {
	if conv == nil {
		return nil
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == model.RoleUser {
			return conv.Messages[i]
		}
	}
	return nil
}

// View renders the transcript, the thinking indicator and the input line.
func (m tuiModel) View() string {
	var sb strings.Builder
	for _, line := range m.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if m.waiting {
		sb.WriteString(m.spinner.View() + " " + DimStyle.Render(m.pending.DisplayName()+" is thinking..."))
		sb.WriteString("\n")
	}
	sb.WriteString(RenderSeparator(m.width))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render("[" + m.engine.SelectedModel().DisplayName() + "]  Enter send  Esc quit"))
	return sb.String()
}
