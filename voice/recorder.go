package voice

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyRecording indicates Start while a recording is active.
	ErrAlreadyRecording = errors.New("a recording is already in progress")

	// ErrNotRecording indicates Stop or Cancel with no active recording.
	ErrNotRecording = errors.New("no recording in progress")
)

// State is the recorder state machine.
type State uint8

const (
	// StateIdle means no recording exists.
	StateIdle State = iota
	// StateRecording means the device is held and capturing.
	StateRecording
	// StateRecorded means a finished recording awaits hand-off.
	StateRecorded
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateRecorded:
		return "recorded"
	default:
		return "idle"
	}
}

// Recording is the finished capture artifact. Duration is computed from the
// captured samples, not from the elapsed-seconds counter.
type Recording struct {
	PCM        []int16
	SampleRate uint32
	Duration   float64
}

// Asset encodes the PCM samples as little-endian bytes, the form handed to
// the attachment pipeline and the waveform analyzer.
func (r *Recording) Asset() []byte {
	data := make([]byte, len(r.PCM)*2)
	for i, sample := range r.PCM {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(sample))
	}
	return data
}

// TickCallback receives the elapsed-seconds counter once per second while
// recording.
type TickCallback func(elapsedSeconds int)

// Recorder drives one recording at a time over a capture device.
type Recorder struct {
	device CaptureDevice

	mu      sync.Mutex
	state   State
	session CaptureSession
	samples []int16
	elapsed int
	rec     *Recording
	onTick  TickCallback

	stop chan struct{}
	done sync.WaitGroup
}

// NewRecorder creates an idle recorder over the given device.
func NewRecorder(device CaptureDevice) *Recorder {
	return &Recorder{device: device}
}

// OnTick registers the per-second elapsed time callback.
func (r *Recorder) OnTick(cb TickCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTick = cb
}

// Start acquires the capture device and begins recording. Acquisition
// failure surfaces as ErrDeviceUnavailable and leaves the recorder idle
// with no half-initialized state.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state == StateRecording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.mu.Unlock()

	session, err := r.device.Acquire()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Start",
			"error":    err.Error(),
		}).Warn("Capture device acquisition failed")
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	r.mu.Lock()
	r.state = StateRecording
	r.session = session
	r.samples = nil
	r.elapsed = 0
	r.rec = nil
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "Start",
		"sample_rate": r.device.SampleRate(),
	}).Info("Recording started")

	r.done.Add(2)
	go r.captureLoop(session, stop)
	go r.tickLoop(stop)

	return nil
}

// captureLoop accumulates PCM frames until stopped.
func (r *Recorder) captureLoop(session CaptureSession, stop chan struct{}) {
	defer r.done.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := session.ReadFrame()
		if err != nil {
			return
		}

		r.mu.Lock()
		if r.state == StateRecording {
			r.samples = append(r.samples, frame...)
		}
		r.mu.Unlock()
	}
}

// tickLoop advances the elapsed-seconds counter once per second.
func (r *Recorder) tickLoop(stop chan struct{}) {
	defer r.done.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			r.elapsed++
			elapsed := r.elapsed
			cb := r.onTick
			r.mu.Unlock()

			if cb != nil {
				cb(elapsed)
			}
		}
	}
}

// Stop finalizes the recording: the device is released, and the resulting
// asset's duration is derived from the captured sample count.
func (r *Recorder) Stop() (*Recording, error) {
	session, stop, err := r.takeSession()
	if err != nil {
		return nil, err
	}

	close(stop)
	r.done.Wait()
	_ = session.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	rate := r.device.SampleRate()
	rec := &Recording{
		PCM:        r.samples,
		SampleRate: rate,
		Duration:   float64(len(r.samples)) / float64(rate),
	}
	r.rec = rec
	r.samples = nil
	r.state = StateRecorded

	logrus.WithFields(logrus.Fields{
		"function": "Stop",
		"samples":  len(rec.PCM),
		"duration": rec.Duration,
	}).Info("Recording finalized")

	return rec, nil
}

// Cancel discards the in-progress capture and releases the device without
// producing a Recording.
func (r *Recorder) Cancel() error {
	session, stop, err := r.takeSession()
	if err != nil {
		return err
	}

	close(stop)
	r.done.Wait()
	_ = session.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = nil
	r.elapsed = 0
	r.rec = nil
	r.state = StateIdle

	logrus.WithFields(logrus.Fields{
		"function": "Cancel",
	}).Info("Recording cancelled, device released")

	return nil
}

// takeSession detaches the live session under the lock so exactly one of
// Stop/Cancel finalizes it.
func (r *Recorder) takeSession() (CaptureSession, chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording || r.session == nil {
		return nil, nil, ErrNotRecording
	}
	session := r.session
	stop := r.stop
	r.session = nil
	return session, stop, nil
}

// Reset returns a recorded pipeline to idle after the artifact has been
// handed off to a message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecorded {
		r.rec = nil
		r.elapsed = 0
		r.state = StateIdle
	}
}

// State returns the current recorder state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the elapsed-seconds counter of the active or finished
// recording.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Recording returns the finished artifact while in the recorded state.
func (r *Recorder) Recording() (*Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec, r.rec != nil
}
