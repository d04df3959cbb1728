// Package ui holds the element tree the recording flows mutate and the
// terminal painter that shows it.
package ui

import (
	"sort"
	"sync"
)

type ID string

const (
	Calibration       ID = "calibration"
	CalibRecordButton ID = "calibRecordButton"
	CalibStopButton   ID = "calibStopButton"
	CalibUploadButton ID = "calibUploadButton"
	CalibStatus       ID = "calibStatus"

	Practice       ID = "practice"
	RecordButton   ID = "recordButton"
	StopButton     ID = "stopButton"
	AnalyzeButton  ID = "analyzeButton"
	ReRecordButton ID = "reRecordButton"
	Status         ID = "status"
	RecordedAudio  ID = "recordedAudio"
	ScoreDisplay   ID = "scoreDisplay"
	ResultChart    ID = "resultChart"
	PitchChart     ID = "pitchChart"
)

type Element struct {
	Text     string
	Disabled bool
	Hidden   bool
	// Src is the file behind audio and chart elements.
	Src string
}

// Document is a mutex-guarded set of elements. Every mutation is reported
// to the registered listeners after the lock is released.
type Document struct {
	mu        sync.Mutex
	els       map[ID]*Element
	listeners []func(ID, Element)
}

// NewDocument returns the page in its loaded state: calibration visible,
// practice hidden, only the record buttons enabled.
func NewDocument() *Document {
	d := &Document{els: map[ID]*Element{}}
	for _, id := range []ID{
		Calibration, CalibRecordButton, CalibStatus,
		Practice, RecordButton, Status, ScoreDisplay,
	} {
		d.els[id] = &Element{}
	}
	for _, id := range []ID{CalibStopButton, CalibUploadButton, StopButton, AnalyzeButton} {
		d.els[id] = &Element{Disabled: true}
	}
	for _, id := range []ID{ReRecordButton, RecordedAudio, ResultChart, PitchChart} {
		d.els[id] = &Element{Hidden: true}
	}
	d.els[Practice].Hidden = true
	return d
}

// OnChange registers fn to be called with the new state of any element
// that changes.
func (d *Document) OnChange(fn func(ID, Element)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Get returns a copy of the element; unknown ids yield the zero Element.
func (d *Document) Get(id ID) Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.els[id]; ok {
		return *el
	}
	return Element{}
}

func (d *Document) Text(id ID) string   { return d.Get(id).Text }
func (d *Document) Disabled(id ID) bool { return d.Get(id).Disabled }
func (d *Document) Hidden(id ID) bool   { return d.Get(id).Hidden }

// Usable reports whether a press on id should reach its handler. Presses
// inside a hidden section are dropped too.
func (d *Document) Usable(id ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.els[id]
	if !ok || el.Disabled || el.Hidden {
		return false
	}
	if sec, ok := sectionOf[id]; ok && d.els[sec].Hidden {
		return false
	}
	return true
}

var sectionOf = map[ID]ID{
	CalibRecordButton: Calibration,
	CalibStopButton:   Calibration,
	CalibUploadButton: Calibration,
	RecordButton:      Practice,
	StopButton:        Practice,
	AnalyzeButton:     Practice,
	ReRecordButton:    Practice,
	RecordedAudio:     Practice,
}

func (d *Document) SetText(id ID, s string) {
	d.update(id, func(el *Element) { el.Text = s })
}

func (d *Document) SetDisabled(id ID, v bool) {
	d.update(id, func(el *Element) { el.Disabled = v })
}

func (d *Document) SetHidden(id ID, v bool) {
	d.update(id, func(el *Element) { el.Hidden = v })
}

func (d *Document) SetSrc(id ID, src string) {
	d.update(id, func(el *Element) { el.Src = src })
}

func (d *Document) update(id ID, fn func(*Element)) {
	d.mu.Lock()
	el, ok := d.els[id]
	if !ok {
		el = &Element{}
		d.els[id] = el
	}
	before := *el
	fn(el)
	after := *el
	listeners := d.listeners
	d.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range listeners {
		fn(id, after)
	}
}

// IDs returns every element id in sorted order.
func (d *Document) IDs() []ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ID, 0, len(d.els))
	for id := range d.els {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
