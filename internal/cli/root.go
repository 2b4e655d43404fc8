// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/jeranaias/oranges-tui/internal/config"
	"github.com/jeranaias/oranges-tui/internal/engine"
	"github.com/jeranaias/oranges-tui/internal/logging"
	"github.com/jeranaias/oranges-tui/internal/model"
)

// App carries global flags and shared dependencies for every command.
type App struct {
	Config *config.Config

	// Streams and clock; tests replace them.
	In    io.Reader
	Out   io.Writer
	Err   io.Writer
	Clock clockwork.Clock

	configPath string
	modelName  string
	logLevel   string
	noColor    bool

	logCloser io.Closer

	// observe is registered on every engine the app builds.
	observe func(engine.Snapshot)
}

// NewApp creates an App wired to the process's standard streams.
func NewApp() *App {
	return &App{
		In:    os.Stdin,
		Out:   os.Stdout,
		Err:   os.Stderr,
		Clock: clockwork.NewRealClock(),
	}
}

// CreateRootCommand creates and configures the root command.
func (app *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oranges",
		Short: "Chat with the Oranges juice models",
		Long: `oranges is a terminal chat front end for the Oranges models. Each model
answers after its own thinking time; conversations live for the session.

Running oranges with no command starts an interactive chat.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
		PersistentPostRun: func(*cobra.Command, []string) { app.teardown() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&app.configPath, "config", "c", "", "Config file (default ~/.oranges/config.toml)")
	flags.StringVarP(&app.modelName, "model", "m", "", "Model to start with (fast-juices, pure-juice, juices or 1-3)")
	flags.StringVar(&app.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&app.noColor, "no-color", false, "Disable colored output")

	rootCmd.SetIn(app.In)
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)

	app.addChatCommand(rootCmd)
	app.addTUICommand(rootCmd)
	app.addAskCommand(rootCmd)
	app.addModelsCommand(rootCmd)
	app.addConfigCommand(rootCmd)
	app.addVersionCommand(rootCmd)

	return rootCmd
}

// setup loads configuration and configures logging and colors.
func (app *App) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(app.configPath)
	if err != nil {
		return err
	}
	if app.modelName != "" {
		m, err := model.ParseModel(app.modelName)
		if err != nil {
			return err
		}
		cfg.DefaultModel = string(m)
	}
	if app.logLevel != "" {
		cfg.Log.Level = app.logLevel
	}
	if app.noColor {
		cfg.UI.NoColor = true
	}
	app.Config = cfg

	closer, err := logging.Configure(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	app.logCloser = closer

	if cfg.UI.NoColor {
		DisableColors()
	}

	logging.Logger.Debug("config loaded", "model", cfg.DefaultModel, "level", cfg.Log.Level)
	return nil
}

func (app *App) teardown() {
	if app.logCloser != nil {
		app.logCloser.Close()
		app.logCloser = nil
	}
}

// newEngine builds an engine on the app clock with the configured model.
func (app *App) newEngine() *engine.Engine {
	cfg := engine.DefaultConfig()
	cfg.Clock = app.Clock
	cfg.Logger = logging.Logger
	if app.Config != nil {
		cfg.DefaultModel = app.Config.Model()
	}
	e := engine.New(cfg)
	if app.observe != nil {
		e.OnChange(app.observe)
	}
	return e
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	app := NewApp()
	root := app.CreateRootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(app.Err, "%s %v\n", ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}
