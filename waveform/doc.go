// Package waveform turns audio assets into amplitude buckets for rendering
// and maps click positions to playback offsets.
//
// Decoding favors real data but degrades gracefully: when an asset cannot be
// decoded (unsupported format, truncated data), the analyzer falls back to a
// synthetic pseudo-random bucket array so a waveform shape still renders.
// The fallback is a deliberate degraded mode, logged rather than silent.
package waveform
