package waveform

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"

	"github.com/CodeWithFin/mnada-web-app-sub000/limits"
)

// ErrNoBuckets indicates a non-positive bucket count.
var ErrNoBuckets = errors.New("bucket count must be positive")

// Analyzer decodes audio assets into amplitude buckets.
type Analyzer struct {
	decoder opus.Decoder
}

// NewAnalyzer creates an analyzer with a fresh opus decoder.
func NewAnalyzer() *Analyzer {
	return &Analyzer{decoder: opus.NewDecoder()}
}

// Analyze decodes the asset's first channel into the requested number of
// equal-width amplitude buckets, each the maximum absolute sample magnitude
// of its range normalized to [0,1]. Assets are tried as opus frames first,
// then as raw little-endian PCM16. If neither decodes, a synthetic bucket
// array derived from the asset bytes is returned so the caller can still
// render a waveform shape.
func (a *Analyzer) Analyze(asset []byte, buckets int) []float64 {
	if buckets <= 0 {
		buckets = limits.DefaultWaveformBuckets
	}

	pcm, err := a.decode(asset)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Analyze",
			"asset_size": len(asset),
			"error":      err.Error(),
		}).Warn("Audio decode failed, using synthetic waveform")
		return Synthetic(asset, buckets)
	}
	return BucketsFromPCM(pcm, buckets)
}

// decode attempts opus first, then raw PCM16.
func (a *Analyzer) decode(asset []byte) ([]int16, error) {
	if len(asset) == 0 {
		return nil, errors.New("empty asset")
	}

	if pcm, err := a.decodeOpus(asset); err == nil {
		return pcm, nil
	}

	if len(asset)%2 != 0 {
		return nil, errors.New("asset is neither opus nor PCM16")
	}
	pcm := make([]int16, len(asset)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(asset[i*2:]))
	}
	return pcm, nil
}

// decodeOpus decodes a single opus frame to mono PCM, keeping the first
// channel when the frame is stereo.
func (a *Analyzer) decodeOpus(data []byte) ([]int16, error) {
	// 1920 samples covers a 40ms frame at 48kHz.
	out := make([]byte, 1920*2*2)
	_, isStereo, err := a.decoder.Decode(data, out)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	stride := 1
	if isStereo {
		stride = 2
	}
	sampleCount := len(out) / 2 / stride
	pcm := make([]int16, sampleCount)
	for i := 0; i < sampleCount; i++ {
		pcm[i] = int16(binary.LittleEndian.Uint16(out[i*2*stride:]))
	}
	return pcm, nil
}

// BucketsFromPCM reduces PCM samples to amplitude buckets normalized to
// [0,1]. Each bucket holds the maximum absolute magnitude of its sample
// range.
func BucketsFromPCM(pcm []int16, buckets int) []float64 {
	out := make([]float64, buckets)
	if len(pcm) == 0 {
		return out
	}

	samplesPerBucket := len(pcm) / buckets
	if samplesPerBucket < 1 {
		samplesPerBucket = 1
	}

	for b := 0; b < buckets; b++ {
		start := b * samplesPerBucket
		if start >= len(pcm) {
			break
		}
		end := start + samplesPerBucket
		if b == buckets-1 || end > len(pcm) {
			end = len(pcm)
		}

		var peak int32
		for _, sample := range pcm[start:end] {
			mag := int32(sample)
			if mag < 0 {
				mag = -mag
			}
			if mag > peak {
				peak = mag
			}
		}
		out[b] = float64(peak) / 32768.0
	}
	return out
}

// Synthetic produces a deterministic pseudo-random bucket array seeded from
// the asset bytes, so the same asset always renders the same placeholder
// shape.
func Synthetic(asset []byte, buckets int) []float64 {
	var seed uint64 = 1469598103934665603
	for _, b := range asset {
		seed ^= uint64(b)
		seed *= 1099511628211
	}
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}

	out := make([]float64, buckets)
	state := seed
	for i := range out {
		// xorshift64
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		// Keep placeholder bars visibly non-zero.
		out[i] = 0.2 + 0.7*float64(state%1000)/999.0
	}
	return out
}

// Seek maps a click at position fraction f of the rendered width to a
// playback offset, clamped to [0, duration].
func Seek(fraction, duration float64) float64 {
	pos := fraction * duration
	if pos < 0 {
		return 0
	}
	if pos > duration {
		return duration
	}
	return pos
}

// FormatTime renders whole seconds as m:ss, e.g. 125 -> "2:05".
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
