package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"feewatch/internal/storage"
)

// Export renders stored snapshots as a PNG chart of fee tiers and mempool size.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.PNGPath == "" {
		return errors.New("--png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	snapshots, err := a.newTabular().ReadAll()
	if err != nil {
		return err
	}

	points, err := filterWindow(snapshots, opts.From, opts.To)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		a.Logger.Info().Msg("no snapshots found for export window")
		return nil
	}

	downsampled := downsamplePoints(points, opts.MaxPoints)
	a.Logger.Info().Int("total", len(points)).Int("exported", len(downsampled)).Msg("exporting snapshots")

	return writeSnapshotsPNG(opts.PNGPath, downsampled)
}

type point struct {
	at       time.Time
	snapshot storage.Snapshot
}

func filterWindow(snapshots []storage.Snapshot, from, to *time.Time) ([]point, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, errors.New("from must be before to")
	}

	points := make([]point, 0, len(snapshots))
	for _, s := range snapshots {
		at, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			return nil, err
		}
		if from != nil && at.Before(*from) {
			continue
		}
		if to != nil && !at.Before(*to) {
			continue
		}
		points = append(points, point{at: at.UTC(), snapshot: s})
	}
	return points, nil
}

func downsamplePoints(points []point, max int) []point {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return points[len(points)-1:]
	}

	result := make([]point, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writeSnapshotsPNG(path string, points []point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	fastest := make([]float64, len(points))
	halfHour := make([]float64, len(points))
	hour := make([]float64, len(points))
	minimum := make([]float64, len(points))
	vsize := make([]float64, len(points))

	for i, p := range points {
		x[i] = p.at
		fastest[i] = float64(p.snapshot.FastestFee)
		halfHour[i] = float64(p.snapshot.HalfHourFee)
		hour[i] = float64(p.snapshot.HourFee)
		minimum[i] = float64(p.snapshot.MinimumFee)
		vsize[i] = float64(p.snapshot.MempoolVSize) / 1e6
	}

	feeFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	vsizeFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Fee rate (sat/vB)",
			ValueFormatter: feeFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Mempool vsize (MvB)",
			ValueFormatter: vsizeFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Fastest", XValues: x, YValues: fastest},
			chart.TimeSeries{Name: "Half hour", XValues: x, YValues: halfHour},
			chart.TimeSeries{Name: "Hour", XValues: x, YValues: hour},
			chart.TimeSeries{Name: "Minimum", XValues: x, YValues: minimum},
			chart.TimeSeries{
				Name:    "Mempool vsize",
				XValues: x,
				YValues: vsize,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
