package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/prosody-coach/capture"
	"github.com/maastricht-university/prosody-coach/clients"
	"github.com/maastricht-university/prosody-coach/ui"
)

const (
	textRequesting  = "🔄 마이크 권한 요청 중..."
	textRerecord    = "🔄 다시 녹음해주세요."
	prefixDevice    = "❌ 오류: "
	prefixTransport = "❌ 서버 오류: "
)

// Uploader is the part of clients.HTTP a flow needs.
type Uploader interface {
	Upload(ctx context.Context, url string, form clients.Form) (json.RawMessage, error)
}

// Player plays a published recording.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Controls names the elements one flow drives. ReRecord and Audio are
// empty for flows without re-record and playback.
type Controls struct {
	Record, Stop, Upload, ReRecord, Status, Audio ui.ID
}

// Text is the flow-specific status wording.
type Text struct {
	Recording  string
	Recorded   string
	Submitting string
	Done       string
	ServerErr  string
}

type FlowConfig struct {
	Name     string
	URL      string
	Form     func(audio []byte) clients.Form
	Controls Controls
	Text     Text
	// OnSuccess runs after the server accepted the upload. An error is
	// shown like a failed upload.
	OnSuccess func(ctx context.Context, body json.RawMessage) error
}

// Flow is one record → stop → upload cycle bound to its elements.
type Flow struct {
	cfg     FlowConfig
	doc     *ui.Document
	session *capture.Session
	client  Uploader
	objects *capture.Objects
	player  Player
	log     *logrus.Entry

	srcMu    sync.Mutex
	audioSrc string
}

func NewFlow(cfg FlowConfig, doc *ui.Document, src capture.Source, client Uploader, objects *capture.Objects, player Player) *Flow {
	return &Flow{
		cfg:     cfg,
		doc:     doc,
		session: capture.NewSession(cfg.Name, src),
		client:  client,
		objects: objects,
		player:  player,
		log:     logrus.WithField("flow", cfg.Name),
	}
}

func (f *Flow) Session() *capture.Session { return f.session }

func (f *Flow) status(s string) { f.doc.SetText(f.cfg.Controls.Status, s) }

// Start asks for the microphone and begins recording.
func (f *Flow) Start(ctx context.Context) {
	c := f.cfg.Controls
	f.status(textRequesting)
	f.doc.SetDisabled(c.Record, true)

	if err := f.session.Start(ctx); err != nil {
		if errors.Is(err, capture.ErrNotIdle) {
			return
		}
		f.doc.SetDisabled(c.Record, false)
		f.status(prefixDevice + err.Error())
		return
	}

	f.status(f.cfg.Text.Recording)
	f.doc.SetDisabled(c.Stop, false)
	f.doc.SetDisabled(c.Upload, true)
	if c.ReRecord != "" {
		f.doc.SetHidden(c.ReRecord, true)
	}
}

// Stop finalizes the recording; it does nothing unless recording.
func (f *Flow) Stop() {
	c := f.cfg.Controls
	blob, stopped, err := f.session.Stop()
	if !stopped {
		return
	}
	f.doc.SetDisabled(c.Stop, true)
	if blob == nil {
		f.status(prefixDevice + err.Error())
		f.doc.SetDisabled(c.Upload, true)
		f.doc.SetDisabled(c.Record, false)
		return
	}
	if err != nil {
		f.log.WithError(err).Warn("device did not stop cleanly")
	}

	if c.Audio != "" && f.objects != nil {
		path, err := f.objects.Create(blob)
		if err != nil {
			f.log.WithError(err).Warn("recording not available for playback")
		} else {
			f.setSource(path)
			f.doc.SetSrc(c.Audio, path)
			f.doc.SetHidden(c.Audio, false)
		}
	}

	f.status(f.cfg.Text.Recorded)
	f.doc.SetDisabled(c.Upload, false)
	if c.ReRecord != "" {
		f.doc.SetHidden(c.ReRecord, false)
	}
}

// Reset drops the recording and returns the controls to their initial
// state.
func (f *Flow) Reset() {
	c := f.cfg.Controls
	f.session.Reset()
	f.setSource("")
	if c.Audio != "" {
		f.doc.SetSrc(c.Audio, "")
		f.doc.SetHidden(c.Audio, true)
	}
	f.status(textRerecord)
	f.doc.SetDisabled(c.Record, false)
	f.doc.SetDisabled(c.Stop, true)
	f.doc.SetDisabled(c.Upload, true)
	if c.ReRecord != "" {
		f.doc.SetHidden(c.ReRecord, true)
	}
}

// setSource replaces the published recording, revoking the previous one.
func (f *Flow) setSource(path string) {
	f.srcMu.Lock()
	old := f.audioSrc
	f.audioSrc = path
	f.srcMu.Unlock()

	if old == "" || f.objects == nil {
		return
	}
	if err := f.objects.Revoke(old); err != nil {
		f.log.WithError(err).Warn("revoke recording")
	}
}

func (f *Flow) source() string {
	f.srcMu.Lock()
	defer f.srcMu.Unlock()
	return f.audioSrc
}

// Submit uploads the finished recording. The upload control stays
// disabled while the request is in flight and is enabled again if it
// fails.
func (f *Flow) Submit(ctx context.Context) {
	blob := f.session.Blob()
	if blob == nil {
		return
	}
	c := f.cfg.Controls
	f.status(f.cfg.Text.Submitting)
	f.doc.SetDisabled(c.Upload, true)

	body, err := f.client.Upload(ctx, f.cfg.URL, f.cfg.Form(blob.Data))
	if err != nil {
		f.fail(err)
		f.doc.SetDisabled(c.Upload, false)
		return
	}

	f.status(f.cfg.Text.Done)
	if f.cfg.OnSuccess == nil {
		return
	}
	if err := f.cfg.OnSuccess(ctx, body); err != nil {
		f.fail(err)
		f.doc.SetDisabled(c.Upload, false)
	}
}

// Play plays back the published recording.
func (f *Flow) Play(ctx context.Context) {
	src := f.source()
	if src == "" || f.player == nil {
		return
	}
	if err := f.player.Play(ctx, src); err != nil {
		f.log.WithError(err).Warn("playback failed")
		f.status(prefixDevice + err.Error())
	}
}

func (f *Flow) fail(err error) {
	var se *clients.ServerError
	var te *clients.TransportError
	switch {
	case errors.As(err, &se):
		f.status(f.cfg.Text.ServerErr + se.Message)
	case errors.As(err, &te):
		f.status(prefixTransport + te.Error())
	default:
		f.status(prefixDevice + err.Error())
	}
	f.log.WithError(err).Warn("upload failed")
}
