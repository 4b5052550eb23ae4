package cli

import (
	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the fee and mempool endpoints until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.application(cmd)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
