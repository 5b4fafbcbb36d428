// Package cli holds the feeddigest commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"FeedDigest/internal/app"
	"FeedDigest/internal/config"
	"FeedDigest/internal/logging"
)

type rootState struct {
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
	in         io.Reader
	console    io.Writer
}

// newRoot builds the command tree; confirmations are read from in and logs go to console.
func newRoot(in io.Reader, console io.Writer) (*cobra.Command, *rootState) {
	state := &rootState{in: in, console: console}

	root := &cobra.Command{
		Use:   "feeddigest",
		Short: "Collect feed articles, summarize them and mail a daily digest",
		Long: `feeddigest reads RSS and Atom feeds, extracts the article text, asks an
OpenAI-compatible model for a short summary and keeps it in a relational store.
The send command mails the summaries stored today as one HTML digest.

Both jobs are meant to be triggered by an external scheduler such as cron:
  feeddigest collect      # every few hours
  feeddigest send         # once a day`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.init()
		},
	}

	root.PersistentFlags().StringVar(&state.configPath, "config", "", "YAML config file (default $FEEDDIGEST_CONFIG)")
	root.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newCollectCommand(state),
		newSendCommand(state),
		newDBCommand(state),
	)
	return root, state
}

// Execute runs the command tree with ctx and logs the error that ends it.
func Execute(ctx context.Context) error {
	root, state := newRoot(os.Stdin, os.Stdout)
	return execute(ctx, root, state)
}

func execute(ctx context.Context, root *cobra.Command, state *rootState) error {
	err := root.ExecuteContext(ctx)
	if err != nil {
		state.log().Error("application stopped", "error", err)
	}
	return err
}

func (s *rootState) init() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	s.cfg = cfg
	if s.logLevel != "" {
		s.cfg.Logging.Level = s.logLevel
	}
	s.logger = logging.NewTo(s.console, s.cfg.Logging)
	s.logger.Debug("configuration loaded",
		"driver", s.cfg.Database.Driver,
		"feeds", len(s.cfg.Feeds),
		"model", s.cfg.LLM.Model,
	)
	return nil
}

// log falls back to a console logger when the run failed before configuration was loaded.
func (s *rootState) log() *slog.Logger {
	if s.logger == nil {
		s.logger = logging.NewTo(s.console, config.LoggingConfig{})
	}
	return s.logger
}

func (s *rootState) open(cmd *cobra.Command) (*app.Application, error) {
	application, err := app.New(cmd.Context(), s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return application, nil
}
