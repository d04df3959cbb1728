// Package capture records microphone audio into in-memory sessions that
// finalize into a single WAV-tagged blob.
package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

const WAVType = "audio/wav"

// ErrNotIdle is returned by Start when a session is already requesting,
// recording or holding a finished recording.
var ErrNotIdle = errors.New("capture: session is not idle")

// ErrNoAudio is reported by Stop when the device delivered nothing.
var ErrNoAudio = errors.New("capture: no audio was recorded")

type State int

const (
	Idle State = iota
	Requesting
	Recording
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Recording:
		return "recording"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Source hands out microphone streams. Acquire may block while the device
// is being opened.
type Source interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is one acquired device. Start begins delivering chunks to onData,
// possibly from another goroutine. Stop must deliver any pending chunk
// before it returns.
type Stream interface {
	Start(onData func(chunk []byte)) error
	Stop() error
	Close() error
}

// DeviceError wraps a failure to acquire or start the microphone.
type DeviceError struct{ Err error }

func (e *DeviceError) Error() string { return e.Err.Error() }
func (e *DeviceError) Unwrap() error { return e.Err }

// Blob is a finalized recording.
type Blob struct {
	Type string
	Data []byte
}

func (b *Blob) Size() int { return len(b.Data) }

type Session struct {
	name string
	src  Source
	log  *logrus.Entry

	mu     sync.Mutex
	state  State
	stream Stream
	chunks [][]byte
	blob   *Blob
}

func NewSession(name string, src Source) *Session {
	return &Session{
		name: name,
		src:  src,
		log:  logrus.WithField("session", name),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Blob returns the finalized recording, or nil before a stop.
func (s *Session) Blob() *Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob
}

// Start acquires the microphone and begins recording. On failure the
// session returns to Idle and the error is a *DeviceError.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrNotIdle
	}
	s.state = Requesting
	s.mu.Unlock()

	stream, err := s.src.Acquire(ctx)
	if err != nil {
		s.setState(Idle)
		s.log.WithError(err).Warn("microphone unavailable")
		return &DeviceError{Err: err}
	}

	s.mu.Lock()
	s.stream = stream
	s.chunks = nil
	s.blob = nil
	s.mu.Unlock()

	if err := stream.Start(s.push); err != nil {
		_ = stream.Close()
		s.mu.Lock()
		s.stream = nil
		s.state = Idle
		s.mu.Unlock()
		s.log.WithError(err).Warn("recording did not start")
		return &DeviceError{Err: err}
	}

	s.setState(Recording)
	s.log.Debug("recording")
	return nil
}

func (s *Session) push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return
	}
	s.chunks = append(s.chunks, chunk)
}

// Stop finalizes the recording. It reports false, and changes nothing, when
// the session is not recording. If the device delivered no audio the
// session goes back to Idle without a blob and the error is a *DeviceError.
func (s *Session) Stop() (*Blob, bool, error) {
	s.mu.Lock()
	if s.state != Recording {
		s.mu.Unlock()
		return nil, false, nil
	}
	stream := s.stream
	s.mu.Unlock()

	// push takes the lock while the stream flushes
	stopErr := stream.Stop()
	closeErr := stream.Close()
	err := errors.Join(stopErr, closeErr)

	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	for _, c := range s.chunks {
		buf.Write(c)
	}
	s.chunks = nil
	s.stream = nil

	if buf.Len() == 0 {
		s.blob = nil
		s.state = Idle
		if err == nil {
			err = ErrNoAudio
		}
		s.log.WithError(err).Warn("recording is empty")
		return nil, true, &DeviceError{Err: err}
	}

	s.blob = &Blob{Type: WAVType, Data: buf.Bytes()}
	s.state = Ready
	s.log.WithField("bytes", buf.Len()).Debug("recording finalized")
	return s.blob, true, err
}

// Reset discards any recording and returns the session to Idle.
func (s *Session) Reset() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.chunks = nil
	s.blob = nil
	s.state = Idle
	s.mu.Unlock()

	if stream != nil {
		_ = stream.Stop()
		_ = stream.Close()
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
