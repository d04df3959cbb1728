package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
)

// Contour is a pitch track. Unvoiced frames arrive as JSON null and are
// held as NaN.
type Contour []float64

func (c *Contour) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Contour, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*c = out
	return nil
}

// --- Analysis (/analyze) ---
type AnalyzeReq struct {
	Chapter  string
	Sentence string
	Audio    []byte
}

type AnalysisResult struct {
	Score             float64   `json:"score"`
	StressSimilarity  float64   `json:"stress_similarity"`
	RhythmSimilarity  float64   `json:"rhythm_similarity"`
	MFCCSimilarity    float64   `json:"mfcc_similarity"`
	OverallSimilarity float64   `json:"overall_similarity"`
	TNat              []float64 `json:"t_nat"`
	TLea              []float64 `json:"t_lea,omitempty"`
	F0Nat             Contour   `json:"f0_nat"`
	F0Lea             Contour   `json:"f0_lea"`
}

// Similarities returns stress, rhythm, MFCC and overall, in that order.
func (r *AnalysisResult) Similarities() []float64 {
	return []float64{r.StressSimilarity, r.RhythmSimilarity, r.MFCCSimilarity, r.OverallSimilarity}
}

func AnalyzeForm(req AnalyzeReq) Form {
	return Form{
		Fields: []Field{
			{Name: "chapter", Value: req.Chapter},
			{Name: "sentence", Value: req.Sentence},
		},
		FileField:   "audio",
		FileName:    "record.wav",
		ContentType: "audio/wav",
		File:        req.Audio,
	}
}

func DecodeAnalysis(url string, body []byte) (*AnalysisResult, error) {
	var out AnalysisResult
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&out); err != nil {
		return nil, transportErr(url, "analyze decode: %w", err)
	}
	return &out, nil
}

func (h *HTTP) Analyze(ctx context.Context, url string, req AnalyzeReq) (*AnalysisResult, error) {
	body, err := h.Upload(ctx, url, AnalyzeForm(req))
	if err != nil {
		return nil, err
	}
	return DecodeAnalysis(url, body)
}
