package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCollectCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch feeds, summarize new articles and store them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := state.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Collect(cmd.Context())
			if err != nil {
				return fmt.Errorf("collect: %w", err)
			}

			out := cmd.OutOrStdout()
			err = printTable(out, []string{"Articles", "Count"}, [][]string{
				{"fetched", strconv.Itoa(report.Fetched)},
				{"stored", strconv.Itoa(report.Stored)},
				{"already stored", strconv.Itoa(report.SkippedExisting)},
				{"not summarized", strconv.Itoa(report.SummarizeFailed)},
				{"duplicates", strconv.Itoa(report.Duplicates)},
				{"failed", strconv.Itoa(report.Failed)},
			})
			if err != nil {
				return err
			}
			successColor.Fprintf(out, "Run %s stored %d new summaries\n", report.RunID, report.Stored)
			return nil
		},
	}
}
