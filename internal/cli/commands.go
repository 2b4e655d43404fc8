// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jeranaias/oranges-tui/internal/config"
	"github.com/jeranaias/oranges-tui/internal/engine"
	"github.com/jeranaias/oranges-tui/internal/export"
	"github.com/jeranaias/oranges-tui/internal/model"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// CHAT
// =============================================================================

func (app *App) addChatCommand(rootCmd *cobra.Command) {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd.Context())
		},
	}
	rootCmd.AddCommand(chatCmd)
}

func (app *App) runChat(ctx context.Context) error {
	e := app.newEngine()
	defer e.Close()

	var in LineReader
	interactive := app.In == os.Stdin && IsTTY()
	if interactive {
		in = newHistoryReader(app.Config.HistoryPath())
	} else {
		in = NewPipeReader(app.In, nil)
	}
	defer in.Close()

	// Ctrl+C while a reply is pending abandons the wait and ends the chat.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	session := NewChatSession(e, app.Config, in, app.Out, app.Clock)
	session.RenderMarkdown = interactive && IsStdoutTTY()

	err := session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// =============================================================================
// ASK
// =============================================================================

func (app *App) addAskCommand(rootCmd *cobra.Command) {
	var asJSON bool

	askCmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask one question and print the reply",
		Long: `Submit a single message, wait for the model's thinking time and print
the reply. With no arguments the question is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(app.In)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			return app.runAsk(cmd.Context(), text, asJSON)
		},
	}
	askCmd.Flags().BoolVar(&asJSON, "json", false, "Print the conversation as JSON")
	rootCmd.AddCommand(askCmd)
}

func (app *App) runAsk(ctx context.Context, text string, asJSON bool) error {
	e := app.newEngine()
	defer e.Close()

	if !e.Submit(text) {
		return engine.ErrEmptyInput
	}
	if err := e.WaitIdle(ctx); err != nil {
		return err
	}

	snap := e.Snapshot()
	if asJSON {
		return export.JSON(app.Out, snap.Active)
	}
	reply := snap.Active.LastMessage()
	_, err := fmt.Fprintln(app.Out, reply.Content)
	return err
}

// =============================================================================
// MODELS
// =============================================================================

func (app *App) addModelsCommand(rootCmd *cobra.Command) {
	var asJSON bool

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List the available models",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(model.Catalog)
			}
			app.printModels()
			return nil
		},
	}
	modelsCmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	rootCmd.AddCommand(modelsCmd)
}

func (app *App) printModels() {
	selected := model.DefaultModel
	if app.Config != nil {
		selected = app.Config.Model()
	}

	for _, info := range model.Catalog {
		marker := "  "
		if info.ID == selected {
			marker = ActiveStyle.Render("*") + " "
		}
		fmt.Fprintf(app.Out, "%s%d  %s %s %s  %s\n",
			marker,
			info.ToolNum,
			ModelStyle(info.ID).Render(runewidth.FillRight(info.Name, 12)),
			runewidth.FillRight(string(info.ID), 12),
			DimStyle.Render(runewidth.FillRight(info.Latency.String(), 6)),
			info.Description)
	}
}

// =============================================================================
// CONFIG
// =============================================================================

func (app *App) addConfigCommand(rootCmd *cobra.Command) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			out, err := app.Config.Encode()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.Out, out)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := app.configPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(showCmd, initCmd)
	rootCmd.AddCommand(configCmd)
}

// =============================================================================
// VERSION
// =============================================================================

func (app *App) addVersionCommand(rootCmd *cobra.Command) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			detailed, _ := cmd.Flags().GetBool("detailed")
			if detailed {
				fmt.Fprintf(app.Out, "oranges %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
			} else {
				fmt.Fprintf(app.Out, "oranges %s\n", Version)
			}
		},
	}

	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
	rootCmd.AddCommand(versionCmd)
}
