package orchestrator

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/prosody-coach/capture"
	"github.com/maastricht-university/prosody-coach/clients"
	"github.com/maastricht-university/prosody-coach/render"
	"github.com/maastricht-university/prosody-coach/ui"
)

// PageContext is what the page is practising. The analyze flow sends it
// with every recording.
type PageContext struct {
	Chapter  string
	Sentence string
}

type Endpoints struct {
	Calibrate string
	Analyze   string
}

// Renderer turns an analysis into chart files.
type Renderer interface {
	Render(r *clients.AnalysisResult) (*render.Charts, error)
}

type Deps struct {
	Source    capture.Source
	Client    Uploader
	Renderer  Renderer
	Player    Player
	Objects   *capture.Objects
	Endpoints Endpoints
}

// Page wires the calibration and practice flows to one document.
type Page struct {
	Doc         *ui.Document
	Calibration *Flow
	Practice    *Flow

	renderer Renderer
	handlers map[ui.ID]handler
	wg       sync.WaitGroup
}

type handler struct {
	run   func(ctx context.Context)
	async bool
	// guard disables the element before the handler is scheduled so a
	// second press cannot slip in ahead of it.
	guard bool
}

func NewPage(pc PageContext, deps Deps) *Page {
	doc := ui.NewDocument()
	p := &Page{Doc: doc, renderer: deps.Renderer}

	p.Calibration = NewFlow(FlowConfig{
		Name: "calibration",
		URL:  deps.Endpoints.Calibrate,
		Form: clients.CalibrationForm,
		Controls: Controls{
			Record: ui.CalibRecordButton,
			Stop:   ui.CalibStopButton,
			Upload: ui.CalibUploadButton,
			Status: ui.CalibStatus,
		},
		Text: Text{
			Recording:  "🔴 캘리브레이션 녹음 중...",
			Recorded:   "✅ 녹음 완료 — “캘리브레이션 적용” 버튼을 눌러주세요.",
			Submitting: "⏳ 캘리브레이션 적용 중...",
			Done:       "✅ 캘리브레이션 완료!",
			ServerErr:  "❌ 캘리브레이션 오류: ",
		},
		OnSuccess: p.calibrated(deps.Endpoints.Calibrate),
	}, doc, deps.Source, deps.Client, nil, nil)

	p.Practice = NewFlow(FlowConfig{
		Name: "practice",
		URL:  deps.Endpoints.Analyze,
		Form: func(audio []byte) clients.Form {
			return clients.AnalyzeForm(clients.AnalyzeReq{Chapter: pc.Chapter, Sentence: pc.Sentence, Audio: audio})
		},
		Controls: Controls{
			Record:   ui.RecordButton,
			Stop:     ui.StopButton,
			Upload:   ui.AnalyzeButton,
			ReRecord: ui.ReRecordButton,
			Status:   ui.Status,
			Audio:    ui.RecordedAudio,
		},
		Text: Text{
			Recording:  "🔴 녹음 중...",
			Recorded:   "✅ 녹음 완료 — “분석하기” 버튼을 눌러주세요.",
			Submitting: "⏳ 분석 중...",
			Done:       "✅ 분석 완료",
			ServerErr:  "❌ 분석 오류: ",
		},
		OnSuccess: p.analyzed(deps.Endpoints.Analyze),
	}, doc, deps.Source, deps.Client, deps.Objects, deps.Player)

	p.handlers = map[ui.ID]handler{
		ui.CalibRecordButton: {run: p.Calibration.Start, async: true, guard: true},
		ui.CalibStopButton:   {run: func(context.Context) { p.Calibration.Stop() }},
		ui.CalibUploadButton: {run: p.Calibration.Submit, async: true, guard: true},
		ui.RecordButton:      {run: p.Practice.Start, async: true, guard: true},
		ui.StopButton:        {run: func(context.Context) { p.Practice.Stop() }},
		ui.ReRecordButton:    {run: func(context.Context) { p.Practice.Reset() }},
		ui.AnalyzeButton:     {run: p.Practice.Submit, async: true, guard: true},
		ui.RecordedAudio:     {run: p.Practice.Play, async: true},
	}
	return p
}

// Press delivers a click on id. Clicks on disabled or hidden elements are
// dropped and Press reports false. Handlers that wait on the device or the
// network run in the background; Wait blocks until they finish.
func (p *Page) Press(ctx context.Context, id ui.ID) bool {
	h, ok := p.handlers[id]
	if !ok || !p.Doc.Usable(id) {
		return false
	}
	logrus.WithField("element", id).Debug("press")
	if !h.async {
		h.run(ctx)
		return true
	}
	if h.guard {
		p.Doc.SetDisabled(id, true)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		h.run(ctx)
	}()
	return true
}

func (p *Page) Wait() { p.wg.Wait() }

func (p *Page) calibrated(url string) func(context.Context, json.RawMessage) error {
	return func(_ context.Context, body json.RawMessage) error {
		res, err := clients.DecodeCalibration(url, body)
		if err != nil {
			return err
		}
		if res.PitchMean != nil && res.PitchStd != nil {
			logrus.WithFields(logrus.Fields{"pitch_mean": *res.PitchMean, "pitch_std": *res.PitchStd}).Info("calibration applied")
		}
		p.Doc.SetHidden(ui.Calibration, true)
		p.Doc.SetHidden(ui.Practice, false)
		return nil
	}
}

func (p *Page) analyzed(url string) func(context.Context, json.RawMessage) error {
	return func(_ context.Context, body json.RawMessage) error {
		res, err := clients.DecodeAnalysis(url, body)
		if err != nil {
			return err
		}
		p.Doc.SetText(ui.ScoreDisplay, ScoreText(res.Score))

		if p.renderer == nil {
			return nil
		}
		charts, err := p.renderer.Render(res)
		if err != nil {
			return err
		}
		p.Doc.SetSrc(ui.ResultChart, charts.Bar)
		p.Doc.SetHidden(ui.ResultChart, false)
		p.Doc.SetSrc(ui.PitchChart, charts.Pitch)
		p.Doc.SetHidden(ui.PitchChart, false)
		return nil
	}
}

// ScoreText formats a score the way the page shows it, e.g. "점수: 87점".
func ScoreText(score float64) string {
	return "점수: " + strconv.FormatFloat(score, 'f', -1, 64) + "점"
}
