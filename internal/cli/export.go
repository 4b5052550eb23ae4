package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"feewatch/internal/app"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		from, to string
		export   app.ExportOptions
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render recorded snapshots as a PNG chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if export.From, err = parseBound("from", from); err != nil {
				return err
			}
			if export.To, err = parseBound("to", to); err != nil {
				return err
			}

			a, err := opts.application(cmd)
			if err != nil {
				return err
			}
			return a.Export(cmd.Context(), export)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start timestamp (RFC3339, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "End timestamp (RFC3339, exclusive)")
	cmd.Flags().StringVar(&export.PNGPath, "png", "", "Path to write PNG chart")
	cmd.Flags().IntVar(&export.MaxPoints, "max-points", 0, "Maximum data points to plot (defaults to export.max_data_points)")
	return cmd
}

// parseBound reads an optional RFC3339 window bound; empty means unbounded.
func parseBound(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value %q: %w", flag, value, err)
	}
	return &t, nil
}
