package render

import (
	"bytes"
	"math"
	"os"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/maastricht-university/prosody-coach/clients"
)

func sample() *clients.AnalysisResult {
	return &clients.AnalysisResult{
		Score:             87,
		StressSimilarity:  0.9,
		RhythmSimilarity:  0.8,
		MFCCSimilarity:    0.85,
		OverallSimilarity: 0.85,
		TNat:              []float64{0, 1, 2},
		F0Nat:             clients.Contour{100, 110, 120},
		F0Lea:             clients.Contour{95, 105, 115},
	}
}

func TestBarChartDataset(t *testing.T) {
	bc := BarChart(sample())

	want := []float64{0.9, 0.8, 0.85, 0.85}
	if len(bc.Bars) != len(want) {
		t.Fatalf("bars = %d, want %d", len(bc.Bars), len(want))
	}
	for i, b := range bc.Bars {
		if b.Value != want[i] || b.Label != SimilarityLabels[i] {
			t.Errorf("bar[%d] = %s/%v, want %s/%v", i, b.Label, b.Value, SimilarityLabels[i], want[i])
		}
	}
	r, ok := bc.YAxis.Range.(*chart.ContinuousRange)
	if !ok || r.Min != 0 || r.Max != 1 {
		t.Errorf("y range = %+v, want [0,1]", bc.YAxis.Range)
	}
}

func TestPitchChartSeries(t *testing.T) {
	c := PitchChart(sample())

	if len(c.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(c.Series))
	}
	for _, s := range c.Series {
		cs := s.(chart.ContinuousSeries)
		if cs.Len() != 3 {
			t.Errorf("%s has %d points, want 3", cs.Name, cs.Len())
		}
	}
	if c.XAxis.Name != "time (s)" || c.YAxis.Name != "F0 (Hz)" {
		t.Errorf("axis names = %q / %q", c.XAxis.Name, c.YAxis.Name)
	}
}

func TestPitchChartSkipsUnvoicedAndPairsLearnerTime(t *testing.T) {
	r := sample()
	r.F0Nat = clients.Contour{100, math.NaN(), 120}
	r.TLea = []float64{0, 0.5}
	r.F0Lea = clients.Contour{90, 91, 92}

	c := PitchChart(r)
	ref := c.Series[0].(chart.ContinuousSeries)
	lea := c.Series[1].(chart.ContinuousSeries)
	if ref.Len() != 2 {
		t.Errorf("reference points = %d, want 2", ref.Len())
	}
	if lea.Len() != 2 || lea.XValues[1] != 0.5 {
		t.Errorf("learner x = %v, want [0 0.5]", lea.XValues)
	}
}

func TestRenderWritesNewFilesEachCall(t *testing.T) {
	rd := &Renderer{Dir: t.TempDir()}

	first, err := rd.Render(sample())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := rd.Render(sample())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first.Bar == second.Bar || first.Pitch == second.Pitch {
		t.Error("second render reused chart files")
	}

	for _, p := range []string{first.Bar, first.Pitch} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("%s is not a PNG", p)
		}
	}
}

func TestRenderDegenerateContours(t *testing.T) {
	nan := math.NaN()
	tests := map[string]func(r *clients.AnalysisResult){
		"all unvoiced": func(r *clients.AnalysisResult) {
			r.F0Nat = clients.Contour{nan, nan, nan}
			r.F0Lea = clients.Contour{nan, nan, nan}
		},
		"single frame": func(r *clients.AnalysisResult) {
			r.TNat = []float64{0}
			r.F0Nat = clients.Contour{100}
			r.F0Lea = clients.Contour{95}
		},
		"empty": func(r *clients.AnalysisResult) {
			r.TNat, r.F0Nat, r.F0Lea = nil, nil, nil
		},
		"one voiced instant": func(r *clients.AnalysisResult) {
			r.F0Nat = clients.Contour{nan, 110, nan}
			r.F0Lea = clients.Contour{nan, 105, nan}
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := sample()
			mutate(r)
			dir := t.TempDir()
			charts, err := (&Renderer{Dir: dir}).Render(r)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			data, err := os.ReadFile(charts.Pitch)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(data, []byte("\x89PNG")) {
				t.Error("pitch chart is not a PNG")
			}
		})
	}
}

func TestPitchChartKeepsAutoRangeForNormalData(t *testing.T) {
	c := PitchChart(sample())
	if c.XAxis.Range != nil || c.YAxis.Range != nil {
		t.Errorf("ranges pinned for a regular contour: x=%v y=%v", c.XAxis.Range, c.YAxis.Range)
	}

	r := sample()
	r.F0Nat = clients.Contour{math.NaN(), math.NaN(), math.NaN()}
	r.F0Lea = r.F0Nat
	c = PitchChart(r)
	x, ok := c.XAxis.Range.(*chart.ContinuousRange)
	if !ok || x.Min != 0 || x.Max != 2 {
		t.Errorf("x range = %+v, want the frame times [0,2]", c.XAxis.Range)
	}
}
