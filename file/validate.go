package file

import (
	"fmt"
	"strings"
	"time"

	"github.com/CodeWithFin/mnada-web-app-sub000/limits"
)

// Category classifies an attachment by its MIME type.
type Category uint8

const (
	// CategoryUnknown is a file whose MIME type matches no allow-list.
	CategoryUnknown Category = iota
	// CategoryImage is an image attachment.
	CategoryImage
	// CategoryVideo is a video attachment.
	CategoryVideo
	// CategoryAudio is an audio attachment.
	CategoryAudio
	// CategoryDocument is a document attachment.
	CategoryDocument
)

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryVideo:
		return "video"
	case CategoryAudio:
		return "audio"
	case CategoryDocument:
		return "document"
	default:
		return "unknown"
	}
}

// UploadedFile is the record produced by a completed upload.
type UploadedFile struct {
	ID         string
	Name       string
	Size       int64
	Category   Category
	MIMEType   string
	URL        string
	Caption    string
	UploadedAt time.Time
}

// ValidationError carries every constraint violation found for one file.
// Violations accumulate rather than short-circuiting so a user sees all
// problems with a file at once.
type ValidationError struct {
	FileName   string
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid attachment %q: %s", e.FileName, strings.Join(e.Violations, "; "))
}

// Classify maps a MIME type to its attachment category.
func Classify(mimeType string) Category {
	for _, m := range limits.ImageMIMETypes {
		if m == mimeType {
			return CategoryImage
		}
	}
	for _, m := range limits.VideoMIMETypes {
		if m == mimeType {
			return CategoryVideo
		}
	}
	for _, m := range limits.AudioMIMETypes {
		if m == mimeType {
			return CategoryAudio
		}
	}
	for _, m := range limits.DocumentMIMETypes {
		if m == mimeType {
			return CategoryDocument
		}
	}
	return CategoryUnknown
}

// Validate checks a file's declared size and MIME type against the global
// ceiling, the stricter image ceiling, and the per-category allow-lists.
// It returns nil when the file passes, or a *ValidationError listing every
// violation.
func Validate(name, mimeType string, size int64) error {
	var violations []string

	if size > limits.MaxAttachmentSize {
		violations = append(violations, fmt.Sprintf(
			"size %d exceeds maximum of %d bytes", size, limits.MaxAttachmentSize))
	}

	category := Classify(mimeType)
	if category == CategoryImage && size > limits.MaxImageSize {
		violations = append(violations, fmt.Sprintf(
			"image size %d exceeds maximum of %d bytes", size, limits.MaxImageSize))
	}
	if category == CategoryUnknown {
		violations = append(violations, fmt.Sprintf("unsupported file type %q", mimeType))
	}

	if len(violations) > 0 {
		return &ValidationError{FileName: name, Violations: violations}
	}
	return nil
}
