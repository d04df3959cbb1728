package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// Microphone opens the default PortAudio input device. Like a browser
// MediaRecorder started without a timeslice, each stream delivers one WAV
// chunk when it is stopped.
type Microphone struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

func (m *Microphone) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	s := &micStream{
		rate:     m.SampleRate,
		channels: m.Channels,
		buf:      make([]int16, m.FramesPerBuffer*m.Channels),
	}
	stream, err := portaudio.OpenDefaultStream(
		m.Channels, // input channels
		0,          // output channels
		float64(m.SampleRate),
		m.FramesPerBuffer,
		s.buf,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

type micStream struct {
	stream   *portaudio.Stream
	rate     int
	channels int
	buf      []int16

	onData  func([]byte)
	samples []int16
	quit    chan struct{}
	wg      sync.WaitGroup
	readErr error
}

func (s *micStream) Start(onData func([]byte)) error {
	s.onData = onData
	s.samples = s.samples[:0]
	if err := s.stream.Start(); err != nil {
		return err
	}
	s.quit = make(chan struct{})
	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *micStream) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		default:
		}
		if err := s.stream.Read(); err != nil {
			// overflow drops a buffer but the stream keeps running
			if err == portaudio.InputOverflowed {
				logrus.WithError(err).Debug("microphone input overflowed")
				continue
			}
			s.readErr = err
			return
		}
		s.samples = append(s.samples, s.buf...)
	}
}

func (s *micStream) Stop() error {
	if s.quit == nil {
		return nil
	}
	close(s.quit)
	s.wg.Wait()
	s.quit = nil

	if err := s.stream.Stop(); err != nil {
		return err
	}
	if len(s.samples) == 0 {
		return s.readErr
	}
	wav, err := EncodeWAV(s.samples, s.rate, s.channels)
	if err != nil {
		return err
	}
	if s.onData != nil {
		s.onData(wav)
	}
	return s.readErr
}

func (s *micStream) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
