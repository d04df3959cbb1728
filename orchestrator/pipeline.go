package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/prosody-coach/clients"
	cfg "github.com/maastricht-university/prosody-coach/config"
	"github.com/maastricht-university/prosody-coach/render"
)

// Pipeline uploads existing WAV files instead of recording them.
type Pipeline struct {
	cfg      *cfg.Root
	http     *clients.HTTP
	renderer Renderer
}

type RunRequest struct {
	AudioPath       string
	CalibrationPath string // optional
	Page            PageContext
}

type Report struct {
	Score  string
	Result *clients.AnalysisResult
	Charts *render.Charts
}

func NewPipeline(c *cfg.Root, h *clients.HTTP, r Renderer) *Pipeline {
	return &Pipeline{cfg: c, http: h, renderer: r}
}

func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*Report, error) {
	if req.CalibrationPath != "" {
		calib, err := os.ReadFile(req.CalibrationPath)
		if err != nil {
			return nil, err
		}
		if _, err := p.http.Calibrate(ctx, p.cfg.URL(p.cfg.Endpoints.Calibrate), calib); err != nil {
			return nil, fmt.Errorf("calibrate: %w", err)
		}
	}

	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, err
	}
	res, err := p.http.Analyze(ctx, p.cfg.URL(p.cfg.Endpoints.Analyze), clients.AnalyzeReq{
		Chapter:  req.Page.Chapter,
		Sentence: req.Page.Sentence,
		Audio:    audio,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	rep := &Report{Score: ScoreText(res.Score), Result: res}
	if p.renderer != nil {
		if rep.Charts, err = p.renderer.Render(res); err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"chapter":  req.Page.Chapter,
		"sentence": req.Page.Sentence,
		"score":    res.Score,
		"overall":  res.OverallSimilarity,
	}).Info("analysis complete")
	return rep, nil
}
