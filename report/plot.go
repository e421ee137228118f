package report

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// PlotPath は results/mae_<T>.png のパスを返す
func PlotPath(dir, target string) string {
	return filepath.Join(dir, fmt.Sprintf("mae_%s.png", target))
}

// PlotScores はモデルごとの MAE を棒グラフにして path に保存する。
// 拡張子 (.png, .svg, .pdf) で形式が決まる
func PlotScores(path, target string, names []string, scores []float64) error {
	if len(names) == 0 {
		return errors.NewValueError("report.PlotScores", "no scores to plot")
	}
	if len(names) != len(scores) {
		return errors.NewDimensionError("report.PlotScores", len(names), len(scores), 0)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Test MAE (%s)", target)
	p.Y.Label.Text = "MAE"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values(scores), vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "failed to build bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotter.DefaultLineStyle.Color
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)

	width := vg.Length(len(names))*0.9*vg.Inch + 2*vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot %s", path)
	}
	return nil
}
