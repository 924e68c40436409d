// Package limits provides centralized size limits and media type allow-lists
// for the messaging core. This ensures consistent validation across different
// components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxAttachmentSize is the global ceiling for any uploaded file (50 MB).
	MaxAttachmentSize = 50 * 1024 * 1024

	// MaxImageSize is the stricter ceiling applied to image attachments (10 MB).
	MaxImageSize = 10 * 1024 * 1024

	// MaxMessageLength is the maximum length of message text in bytes.
	MaxMessageLength = 4096

	// MaxRecentEmoji is the cap on the persisted recently-used reaction list.
	MaxRecentEmoji = 20

	// MaxRecentSearches is the cap on the persisted recent search term list.
	MaxRecentSearches = 5

	// DefaultWaveformBuckets is the default amplitude bucket count for
	// waveform rendering when the caller does not supply a pixel width.
	DefaultWaveformBuckets = 64
)

var (
	// ErrMessageEmpty indicates an empty message was provided.
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message text exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")
)

// ImageMIMETypes lists the accepted image attachment MIME types.
var ImageMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// VideoMIMETypes lists the accepted video attachment MIME types.
var VideoMIMETypes = []string{
	"video/mp4",
	"video/webm",
	"video/quicktime",
}

// AudioMIMETypes lists the accepted audio attachment MIME types.
var AudioMIMETypes = []string{
	"audio/mpeg",
	"audio/ogg",
	"audio/wav",
	"audio/webm",
	"audio/opus",
}

// DocumentMIMETypes lists the accepted document attachment MIME types.
var DocumentMIMETypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"text/csv",
	"application/zip",
}

// ValidateMessageText validates message text against MaxMessageLength.
// Empty text is allowed: a message may carry only attachments or a voice
// asset, so emptiness is enforced at a higher layer when it matters.
func ValidateMessageText(text string) error {
	if len(text) > MaxMessageLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(text), MaxMessageLength)
	}
	return nil
}

// AllowedMIME reports whether the given MIME type appears in any of the
// attachment allow-lists.
func AllowedMIME(mimeType string) bool {
	for _, list := range [][]string{ImageMIMETypes, VideoMIMETypes, AudioMIMETypes, DocumentMIMETypes} {
		for _, m := range list {
			if m == mimeType {
				return true
			}
		}
	}
	return false
}
