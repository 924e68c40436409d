// Package voice implements the voice capture pipeline.
//
// The recorder is a small state machine (idle, recording, recorded) over an
// exclusively-held capture device. The device is released on every exit
// path: stop, cancel, and error. While recording, elapsed time ticks once
// per second; the final duration of the asset is computed from the captured
// samples, which is authoritative for playback and may differ slightly from
// the elapsed counter.
package voice
