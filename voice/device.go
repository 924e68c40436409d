package voice

import (
	"errors"
	"math"
	"sync"
	"time"
)

// ErrDeviceUnavailable indicates the audio capture device is absent or
// access was refused.
var ErrDeviceUnavailable = errors.New("audio capture device unavailable")

// CaptureSession is an acquired hold on the capture device. ReadFrame blocks
// for one frame interval and returns the next PCM frame; Close releases the
// device.
type CaptureSession interface {
	ReadFrame() ([]int16, error)
	Close() error
}

// CaptureDevice grants exclusive capture sessions. Acquire fails while a
// previous session remains open.
type CaptureDevice interface {
	Acquire() (CaptureSession, error)
	SampleRate() uint32
}

// SimDevice is the simulated microphone used by this deployment and by
// tests. It produces sine-wave PCM frames at a fixed rate and enforces
// exclusive acquisition like real capture hardware.
type SimDevice struct {
	// Denied simulates a user refusing microphone permission.
	Denied bool

	// FrameInterval paces ReadFrame. Defaults to 20ms frames.
	FrameInterval time.Duration

	mu   sync.Mutex
	held bool
}

// NewSimDevice creates a simulated device.
func NewSimDevice() *SimDevice {
	return &SimDevice{FrameInterval: 20 * time.Millisecond}
}

// SampleRate returns the device sample rate (48kHz).
func (d *SimDevice) SampleRate() uint32 { return 48000 }

// Acquire opens an exclusive capture session.
func (d *SimDevice) Acquire() (CaptureSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Denied {
		return nil, ErrDeviceUnavailable
	}
	if d.held {
		return nil, errors.New("capture device already held")
	}
	d.held = true

	interval := d.FrameInterval
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &simSession{device: d, interval: interval}, nil
}

// Held reports whether a session currently holds the device.
func (d *SimDevice) Held() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.held
}

func (d *SimDevice) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.held = false
}

// simSession generates 440Hz sine frames sized to the frame interval.
type simSession struct {
	device   *SimDevice
	interval time.Duration
	phase    float64

	mu     sync.Mutex
	closed bool
}

func (s *simSession) ReadFrame() ([]int16, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("capture session closed")
	}
	s.mu.Unlock()

	time.Sleep(s.interval)

	rate := float64(s.device.SampleRate())
	samples := int(rate * s.interval.Seconds())
	frame := make([]int16, samples)
	step := 2 * math.Pi * 440 / rate
	for i := range frame {
		frame[i] = int16(8000 * math.Sin(s.phase))
		s.phase += step
	}
	return frame, nil
}

func (s *simSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.device.release()
	return nil
}
