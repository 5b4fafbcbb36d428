package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotDelivered = errors.New("digest was not delivered")

func newSendCommand(state *rootState) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Mail the digest of the summaries stored today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := state.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Send(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case report.Records == 0:
				warnColor.Fprintf(out, "No summaries since %s, nothing sent\n", report.From.Format("2006-01-02 15:04 MST"))
				return nil
			case !report.Sent:
				warnColor.Fprintf(out, "Found %d summaries but the digest was not delivered, see the log\n", report.Records)
				return errNotDelivered
			default:
				successColor.Fprintf(out, "Sent %q with %d summaries\n", report.Subject, report.Records)
				return nil
			}
		},
	}

	cmd.Flags().IntVar(&days, "days", 1, "number of calendar days to include, today counts as one")
	return cmd
}
