package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"feewatch/internal/storage"
)

// Show prints the most recent snapshots from the CSV table, oldest first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	snapshots, err := a.newTabular().ReadRecent(opts.Limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(a.Stdout, "no snapshots found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tFastest\tHalfHour\tHour\tEconomy\tMinimum\tVSize\tSpread\tRatio\tFast-Min\tUrgency")

	for _, s := range snapshots {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%d\t%d\n",
			s.Timestamp,
			s.FastestFee,
			s.HalfHourFee,
			s.HourFee,
			s.EconomyFee,
			s.MinimumFee,
			s.MempoolVSize,
			s.Spread,
			storage.FormatRatio(s.Ratio),
			s.FastestMinusMin,
			s.UrgencyGap,
		)
	}

	return writer.Flush()
}
