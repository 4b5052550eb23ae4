package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"feewatch/internal/app"
)

var errNonPositiveLimit = errors.New("--limit must be greater than zero")

func newShowCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the most recent snapshots from the CSV table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errNonPositiveLimit
			}
			a, err := opts.application(cmd)
			if err != nil {
				return err
			}
			return a.Show(cmd.Context(), app.ShowOptions{Limit: limit})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of snapshots to display")
	return cmd
}
