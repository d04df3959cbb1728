package capture

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// Objects publishes blobs as local files so they can be played back, and
// revokes them again on re-record.
type Objects struct {
	Dir string
}

// Create writes b to a new file and returns its path.
func (o *Objects) Create(b *Blob) (string, error) {
	f, err := os.CreateTemp(o.Dir, "recording-*.wav")
	if err != nil {
		return "", fmt.Errorf("publish recording: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(b.Data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("publish recording: %w", err)
	}
	return f.Name(), nil
}

// Revoke removes a published file. Empty paths are ignored.
func (o *Objects) Revoke(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Speaker plays WAV files on the default output device.
type Speaker struct {
	SampleRate int

	once    sync.Once
	initErr error
}

func (s *Speaker) Play(ctx context.Context, path string) error {
	rate := beep.SampleRate(s.SampleRate)
	s.once.Do(func() {
		s.initErr = speaker.Init(rate, rate.N(time.Second/10))
	})
	if s.initErr != nil {
		return fmt.Errorf("speaker init: %w", s.initErr)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != rate {
		src = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(src, beep.Callback(func() { close(done) })))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
