// Package render draws analysis results as PNG charts: similarity scores as
// a bar chart and the reference/learner pitch contours as a line chart.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/maastricht-university/prosody-coach/clients"
)

var SimilarityLabels = []string{"Stress", "Rhythm", "MFCC", "Overall"}

// Charts holds the files written by one Render call.
type Charts struct {
	Bar   string
	Pitch string
}

type Renderer struct {
	Dir    string
	Width  int
	Height int
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    2,
	}
}

// BarChart maps the four similarity fields onto fixed categories with the
// y-axis pinned to [0,1].
func BarChart(r *clients.AnalysisResult) chart.BarChart {
	bars := make([]chart.Value, 0, len(SimilarityLabels))
	for i, v := range r.Similarities() {
		bars = append(bars, chart.Value{Label: SimilarityLabels[i], Value: v})
	}
	return chart.BarChart{
		Title:    "similarity (0-1)",
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: bars,
	}
}

// PitchChart plots both contours against time. Unvoiced (NaN) frames are
// skipped. The learner contour uses t_lea when the server sends it and
// t_nat otherwise.
func PitchChart(r *clients.AnalysisResult) chart.Chart {
	tLea := r.TLea
	if len(tLea) == 0 {
		tLea = r.TNat
	}
	ref := contourSeries("reference F0", r.TNat, r.F0Nat, lineStyle(chart.ColorBlue))
	lea := contourSeries("learner F0", tLea, r.F0Lea, lineStyle(chart.ColorRed))

	graph := chart.Chart{
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: "time (s)"},
		YAxis:      chart.YAxis{Name: "F0 (Hz)"},
		Series:     []chart.Series{ref, lea},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	pinRanges(&graph, []chart.ContinuousSeries{ref, lea}, r.TNat, tLea)
	return graph
}

// pinRanges fixes the axes when the voiced frames give go-chart nothing to
// scale by: no voiced frame at all, or all of them at one instant.
func pinRanges(g *chart.Chart, series []chart.ContinuousSeries, times ...[]float64) {
	var xs, ys []float64
	for _, s := range series {
		xs = append(xs, s.XValues...)
		ys = append(ys, s.YValues...)
	}
	if len(ys) == 0 {
		g.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}

	lo, hi, ok := span(xs)
	if ok && hi > lo {
		return
	}
	if !ok {
		var all []float64
		for _, t := range times {
			all = append(all, t...)
		}
		lo, hi, ok = span(all)
	}
	if !ok {
		lo, hi = 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	g.XAxis.Range = &chart.ContinuousRange{Min: lo, Max: hi}
}

func span(vs []float64) (lo, hi float64, ok bool) {
	for i, v := range vs {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi, len(vs) > 0
}

func contourSeries(name string, ts []float64, f0 clients.Contour, st chart.Style) chart.ContinuousSeries {
	n := len(ts)
	if len(f0) < n {
		n = len(f0)
	}
	s := chart.ContinuousSeries{Name: name, Style: st}
	for i := 0; i < n; i++ {
		if math.IsNaN(f0[i]) {
			continue
		}
		s.XValues = append(s.XValues, ts[i])
		s.YValues = append(s.YValues, f0[i])
	}
	return s
}

// Render writes a fresh pair of chart files; earlier files are left alone.
func (rd *Renderer) Render(r *clients.AnalysisResult) (*Charts, error) {
	if err := os.MkdirAll(rd.Dir, 0o755); err != nil {
		return nil, err
	}
	id := uuid.NewString()[:8]
	out := &Charts{
		Bar:   filepath.Join(rd.Dir, "similarity-"+id+".png"),
		Pitch: filepath.Join(rd.Dir, "pitch-"+id+".png"),
	}

	bar := BarChart(r)
	pitch := PitchChart(r)
	if rd.Width > 0 {
		bar.Width, pitch.Width = rd.Width, rd.Width
	}
	if rd.Height > 0 {
		bar.Height, pitch.Height = rd.Height, rd.Height
	}

	if err := writePNG(out.Bar, bar.Render); err != nil {
		return nil, fmt.Errorf("render similarity chart: %w", err)
	}
	if err := writePNG(out.Pitch, pitch.Render); err != nil {
		os.Remove(out.Bar)
		return nil, fmt.Errorf("render pitch chart: %w", err)
	}
	logrus.WithFields(logrus.Fields{"bar": out.Bar, "pitch": out.Pitch}).Debug("charts rendered")
	return out, nil
}

func writePNG(path string, draw func(chart.RendererProvider, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := draw(chart.PNG, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
