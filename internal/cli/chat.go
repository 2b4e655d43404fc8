// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/oranges-tui/internal/config"
	"github.com/jeranaias/oranges-tui/internal/engine"
	"github.com/jeranaias/oranges-tui/internal/export"
	"github.com/jeranaias/oranges-tui/internal/logging"
	"github.com/jeranaias/oranges-tui/internal/model"
	"github.com/jeranaias/oranges-tui/internal/util"
)

// ErrNoActiveConversation is reported by commands that need one.
var ErrNoActiveConversation = errors.New("no active conversation (send a message or /load one)")

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession drives the interactive REPL on top of an engine.
type ChatSession struct {
	Engine *engine.Engine
	Config *config.Config
	Input  LineReader
	Out    io.Writer
	Clock  clockwork.Clock

	// RenderMarkdown pretty-prints /export md output through glamour.
	RenderMarkdown bool

	started time.Time
	sent    int
}

// NewChatSession creates a session. Clock must be the engine's clock so
// relative ages line up with message timestamps.
func NewChatSession(e *engine.Engine, cfg *config.Config, in LineReader, out io.Writer, clock clockwork.Clock) *ChatSession {
	if cfg == nil {
		cfg = config.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ChatSession{
		Engine:  e,
		Config:  cfg,
		Input:   in,
		Out:     out,
		Clock:   clock,
		started: clock.Now(),
	}
}

// Run reads lines until /quit, end of input or Ctrl+C at the prompt.
// Plain lines are submitted; lines starting with "/" are commands.
func (s *ChatSession) Run(ctx context.Context) error {
	s.printWelcome()

	for {
		line, err := s.Input.ReadLine(s.prompt())
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, ErrInterrupted):
			s.printExitSummary()
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := s.handleSlashCommand(input)
			if err != nil {
				fmt.Fprintf(s.Out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !cont {
				s.printExitSummary()
				return nil
			}
			continue
		}

		if err := s.send(ctx, line); err != nil {
			return err
		}
	}
}

func (s *ChatSession) prompt() string {
	return fmt.Sprintf("[%s] > ", s.Engine.SelectedModel().DisplayName())
}

// send submits text and blocks until the reply lands or ctx is done.
func (s *ChatSession) send(ctx context.Context, text string) error {
	if !s.Engine.Submit(text) {
		fmt.Fprintln(s.Out, WarningStyle.Render("[Waiting] a reply is still pending"))
		return nil
	}
	s.sent++

	pending := s.Engine.Snapshot().PendingModel
	fmt.Fprintln(s.Out, DimStyle.Render(pending.DisplayName()+" is thinking..."))

	if err := s.Engine.WaitIdle(ctx); err != nil {
		return err
	}

	snap := s.Engine.Snapshot()
	if last := lastMessage(snap.Active); last != nil && last.Role == model.RoleAssistant {
		s.printMessage(pending, last)
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes a slash command.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (s *ChatSession) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()
		return true, nil

	case "/model", "/m":
		return true, s.handleModelCommand(args)

	case "/think", "/t":
		return true, s.handleThinkCommand(args)

	case "/new", "/n":
		if !s.Engine.NewSession() {
			return true, engine.ErrReplyPending
		}
		fmt.Fprintln(s.Out, SuccessStyle.Render("[New chat]")+" your next message starts a new conversation")
		return true, nil

	case "/list", "/l":
		s.printList()
		return true, nil

	case "/load":
		return true, s.handleLoadCommand(args)

	case "/history":
		return true, s.printHistory()

	case "/export", "/e":
		return true, s.handleExportCommand(args)

	case "/status", "/s":
		s.printStatus()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModelCommand shows or switches the selected model.
func (s *ChatSession) handleModelCommand(args []string) error {
	if len(args) == 0 {
		current := s.Engine.SelectedModel()
		fmt.Fprintf(s.Out, "%s %s\n", RenderLabel("Model:"), ModelStyle(current).Render(current.DisplayName()))
		for _, info := range model.Catalog {
			fmt.Fprintf(s.Out, "  %d  %-12s %s\n", info.ToolNum, info.Name, DimStyle.Render(info.Description))
		}
		return nil
	}

	m, err := model.ParseModel(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := s.Engine.SelectModel(m); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%s Switched to %s\n", SuccessStyle.Render("[OK]"), ModelStyle(m).Render(m.DisplayName()))
	return nil
}

// handleThinkCommand toggles deep think. The default target is Juices.
func (s *ChatSession) handleThinkCommand(args []string) error {
	target := model.Juices
	if len(args) > 0 {
		m, err := model.ParseModel(strings.Join(args, " "))
		if err != nil {
			return err
		}
		target = m
	}

	m, err := s.Engine.ToggleDeepThink(target)
	if err != nil {
		return err
	}
	state := "off"
	if m.IsDeepThink() {
		state = "on"
	}
	fmt.Fprintf(s.Out, "%s Deep think %s: %s\n", SuccessStyle.Render("[OK]"), state, ModelStyle(m).Render(m.DisplayName()))
	return nil
}

// handleLoadCommand loads a conversation by ID or by "#N" list position.
func (s *ChatSession) handleLoadCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /load <id|#index>")
	}

	id, err := resolveConversationRef(s.Engine.Snapshot(), args[0])
	if err != nil {
		return err
	}
	if err := s.Engine.LoadConversation(id); err != nil {
		return err
	}

	snap := s.Engine.Snapshot()
	fmt.Fprintf(s.Out, "%s Loaded %q with %s\n",
		SuccessStyle.Render("[OK]"),
		snap.Active.Name,
		ModelStyle(snap.SelectedModel).Render(snap.SelectedModel.DisplayName()))
	s.printTranscript(snap.Active)
	return nil
}

// resolveConversationRef maps "#N" to the Nth listed conversation (1-based);
// anything else is taken as an ID.
func resolveConversationRef(snap engine.Snapshot, ref string) (string, error) {
	if !strings.HasPrefix(ref, "#") {
		return ref, nil
	}
	n, err := strconv.Atoi(ref[1:])
	if err != nil || n < 1 || n > len(snap.Conversations) {
		return "", fmt.Errorf("%w: no conversation at %s", engine.ErrConversationNotFound, ref)
	}
	return snap.Conversations[n-1].ID, nil
}

// handleExportCommand writes the active conversation as md (default) or
// json, to a file when a path is given.
func (s *ChatSession) handleExportCommand(args []string) error {
	snap := s.Engine.Snapshot()
	if snap.Active == nil {
		return ErrNoActiveConversation
	}

	format := ""
	if len(args) > 0 {
		format = args[0]
	}
	opts := export.DefaultOptions()
	opts.IncludeTimestamps = true
	opts.ExportedAt = s.Clock.Now()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		path := args[1]
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		if err := export.Write(f, snap.Active, exporter); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(s.Out, "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
		return nil
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, snap.Active, exporter); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	out := buf.String()
	if s.RenderMarkdown && exporter.FileExtension() == ".md" {
		out = renderMarkdown(out, GetTerminalWidth())
	}
	fmt.Fprint(s.Out, out)
	return nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func (s *ChatSession) printWelcome() {
	m := s.Engine.SelectedModel()
	fmt.Fprintln(s.Out, TitleStyle.Render("Oranges"))
	fmt.Fprintln(s.Out, RenderSeparator(30))
	fmt.Fprintf(s.Out, "%s %s\n", RenderLabel("Model:"), ModelStyle(m).Render(m.DisplayName()))
	fmt.Fprintln(s.Out, DimStyle.Render(m.Info().Intro))
	fmt.Fprintln(s.Out, DimStyle.Render("Type a message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(s.Out)
}

func (s *ChatSession) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/model [name]", "Show or switch model (name, id or 1-3)"},
		{"/think [name]", "Toggle deep think"},
		{"/new, /n", "Start a new conversation"},
		{"/list, /l", "List conversations"},
		{"/load <id|#n>", "Open a conversation"},
		{"/history", "Show the active conversation"},
		{"/export [md|json] [file]", "Export the active conversation"},
		{"/status, /s", "Show session status"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Fprintln(s.Out, TitleStyle.Render("Available Commands"))
	fmt.Fprintln(s.Out, RenderSeparator(20))
	for _, c := range commands {
		fmt.Fprintf(s.Out, "  %s  %s\n", ValueStyle.Render(runewidth.FillRight(c.cmd, 26)), DimStyle.Render(c.desc))
	}
	fmt.Fprintln(s.Out)
}

// printList renders the conversation list, most recent first.
func (s *ChatSession) printList() {
	snap := s.Engine.Snapshot()
	if len(snap.Conversations) == 0 {
		fmt.Fprintln(s.Out, DimStyle.Render("No conversations yet"))
		return
	}

	width := s.Config.UI.ListWidth
	if width <= 0 {
		width = config.Default().UI.ListWidth
	}
	now := s.Clock.Now()

	for i, meta := range snap.Metas() {
		marker := "  "
		name := runewidth.FillRight(util.TruncateWidth(meta.Name, width), width)
		if snap.Active != nil && meta.ID == snap.Active.ID {
			marker = ActiveStyle.Render("*") + " "
			name = ActiveStyle.Render(name)
		}
		fmt.Fprintf(s.Out, "%s%-4s %s  %s  %s\n",
			marker,
			fmt.Sprintf("#%d", i+1),
			name,
			DimStyle.Render(runewidth.FillRight(model.TimeAgo(now, meta.UpdatedAt), 12)),
			DimStyle.Render(fmt.Sprintf("%d msgs  %s", meta.MessageCount, meta.ID)))
	}
}

func (s *ChatSession) printHistory() error {
	snap := s.Engine.Snapshot()
	if snap.Active == nil {
		return ErrNoActiveConversation
	}
	s.printTranscript(snap.Active)
	return nil
}

func (s *ChatSession) printTranscript(conv *model.Conversation) {
	fmt.Fprintln(s.Out, RenderSeparator())
	for _, msg := range conv.Messages {
		s.printMessage(conv.Model, msg)
	}
	fmt.Fprintln(s.Out, RenderSeparator())
}

func (s *ChatSession) printMessage(m model.Model, msg *model.Message) {
	fmt.Fprintln(s.Out, formatMessage(m, msg, s.Config.UI.ShowTimestamps))
}

// formatMessage renders one message as a labelled line. Assistant messages
// are labelled with the model that produced them, falling back to m.
func formatMessage(m model.Model, msg *model.Message, timestamps bool) string {
	label := UserStyle.Render("You:")
	if msg.Role == model.RoleAssistant {
		m = msg.ModelOr(m)
		label = ModelStyle(m).Render(m.DisplayName() + ":")
	}
	if timestamps {
		label = DimStyle.Render(msg.Timestamp.Format("15:04:05")) + " " + label
	}
	return label + " " + msg.Content
}

func (s *ChatSession) printStatus() {
	snap := s.Engine.Snapshot()

	fmt.Fprintln(s.Out, TitleStyle.Render("Session Status"))
	fmt.Fprintln(s.Out, RenderSeparator(20))
	fmt.Fprintf(s.Out, "%s %s\n", RenderLabel("Model:"), ModelStyle(snap.SelectedModel).Render(snap.SelectedModel.DisplayName()))
	fmt.Fprintf(s.Out, "%s %s\n", RenderLabel("State:"), ValueStyle.Render(snap.State.String()))
	if snap.Active != nil {
		fmt.Fprintf(s.Out, "%s %s (%d messages)\n", RenderLabel("Active:"), ValueStyle.Render(snap.Active.Name), snap.Active.MessageCount())
	} else {
		fmt.Fprintf(s.Out, "%s %s\n", RenderLabel("Active:"), DimStyle.Render("none"))
	}
	fmt.Fprintf(s.Out, "%s %d\n", RenderLabel("Chats:"), len(snap.Conversations))
	fmt.Fprintf(s.Out, "%s %s\n", RenderLabel("Uptime:"), s.Clock.Since(s.started).Round(time.Second))
}

func (s *ChatSession) printExitSummary() {
	snap := s.Engine.Snapshot()
	fmt.Fprintln(s.Out)
	fmt.Fprintf(s.Out, "%s %d messages sent across %d conversations\n",
		DimStyle.Render("[Bye]"), s.sent, len(snap.Conversations))
	logging.Logger.Debug("chat ended", "sent", s.sent, "conversations", len(snap.Conversations))
}

func lastMessage(conv *model.Conversation) *model.Message {
	if conv == nil {
		return nil
	}
	return conv.LastMessage()
}
