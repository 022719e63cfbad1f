package stats

import (
	"errors"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyHistory = errors.New("fitness history is empty")

// WriteFitnessPlot draws best and mean fitness against generation as a PNG.
func WriteFitnessPlot(path string, history FitnessHistory) error {
	if len(history.BestByGeneration) == 0 {
		return ErrEmptyHistory
	}

	p := plot.New()
	p.Title.Text = "Fitness by generation"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestLine, err := plotter.NewLine(seriesXYs(history.BestByGeneration))
	if err != nil {
		return err
	}
	p.Add(bestLine)
	p.Legend.Add("best", bestLine)

	if len(history.MeanByGeneration) > 0 {
		meanLine, err := plotter.NewLine(seriesXYs(history.MeanByGeneration))
		if err != nil {
			return err
		}
		meanLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(meanLine)
		p.Legend.Add("mean", meanLine)
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func seriesXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}

// WriteFitnessChart renders the same curves as an interactive HTML page.
func WriteFitnessChart(path string, history FitnessHistory) error {
	if len(history.BestByGeneration) == 0 {
		return ErrEmptyHistory
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Fitness by generation"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "generation"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "fitness",
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)

	generations := make([]int, len(history.BestByGeneration))
	for i := range generations {
		generations[i] = i
	}
	line.SetXAxis(generations).AddSeries("best", lineData(history.BestByGeneration))
	if len(history.MeanByGeneration) > 0 {
		line.AddSeries("mean", lineData(history.MeanByGeneration))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}
