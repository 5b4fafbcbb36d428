package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"FeedDigest/internal/domain"
	"FeedDigest/internal/usecase"
)

func newDBCommand(state *rootState) *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	db.AddCommand(
		newDBStatusCommand(state),
		newDBCleanCommand(state),
		newDBResetCommand(state),
		newDBMigrateCommand(state),
	)
	return db
}

func newDBStatusCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tables and record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := state.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.Admin().Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s (%s)\n", state.cfg.Database.Driver, state.cfg.Database.DSN)
			if len(stats.Tables) == 0 {
				warnColor.Fprintln(out, "The database has no tables yet, run 'feeddigest db migrate'")
				return nil
			}

			fmt.Fprintf(out, "Tables: %s\n", strings.Join(stats.Tables, ", "))
			return printTable(out, []string{"Table", "Records"}, [][]string{
				{"summaries", strconv.FormatInt(stats.Summaries, 10)},
				{"original_contents", strconv.FormatInt(stats.OriginalContent, 10)},
			})
		},
	}
}

func newDBCleanCommand(state *rootState) *cobra.Command {
	var (
		days int
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the summaries created in the last N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := state.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			report, err := application.Admin().Clean(cmd.Context(), days, confirmerFor(yes, state.in, out))
			if errors.Is(err, domain.ErrNotConfirmed) {
				fmt.Fprintln(out, "Cancelled.")
				return err
			}
			if err != nil {
				return fmt.Errorf("clean: %w", err)
			}

			if report.Matched == 0 {
				fmt.Fprintf(out, "No records created since %s UTC\n", report.Cutoff.Format("2006-01-02 15:04:05"))
				return nil
			}
			successColor.Fprintf(out, "Deleted %d records\n", report.Deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 1, "delete records created within this many days (1 = the last 24 hours)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newDBResetCommand(state *rootState) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every table, deleting all data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := state.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			if !yes {
				warnColor.Fprintln(out, "This deletes ALL stored summaries and original content.")
			}
			err = application.Admin().Reset(cmd.Context(), confirmerFor(yes, state.in, out))
			if errors.Is(err, domain.ErrNotConfirmed) {
				fmt.Fprintln(out, "Confirmation did not match, nothing changed.")
				return err
			}
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}

			successColor.Fprintln(out, "Database reset.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip typing '"+usecase.ResetPhrase+"'")
	return cmd
}

func newDBMigrateCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := state.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			successColor.Fprintln(cmd.OutOrStdout(), "Tables are up to date.")
			return nil
		},
	}
}
