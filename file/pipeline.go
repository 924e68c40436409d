package file

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// progressSteps is the number of fractional progress reports emitted per
// upload before completion.
const progressSteps = 10

// ProgressFunc receives fractional upload progress in the range 0-100.
type ProgressFunc func(fileID string, percent float64)

// Result is the terminal outcome of one upload.
type Result struct {
	File *UploadedFile
	Err  error
}

// Pipeline validates and uploads attachments. Each upload is tracked
// independently under a generated file ID so concurrent uploads cannot
// interfere, and progress/error entries for a file are cleared
// independently of each other.
type Pipeline struct {
	storage Storage
	bucket  string

	// stepDelay paces the simulated progress reports. Tests set it to zero.
	stepDelay time.Duration

	mu         sync.Mutex
	progress   map[string]float64
	errors     map[string]error
	onProgress ProgressFunc
	wg         sync.WaitGroup
}

// NewPipeline creates a pipeline uploading into the given bucket.
func NewPipeline(storage Storage, bucket string) *Pipeline {
	return &Pipeline{
		storage:   storage,
		bucket:    bucket,
		stepDelay: 20 * time.Millisecond,
		progress:  make(map[string]float64),
		errors:    make(map[string]error),
	}
}

// SetStepDelay adjusts the pacing of simulated progress reports.
func (p *Pipeline) SetStepDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stepDelay = d
}

// OnProgress registers the progress callback.
func (p *Pipeline) OnProgress(cb ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress = cb
}

// Upload validates the file and starts an asynchronous upload. It returns
// the generated file ID immediately along with a channel delivering the
// terminal Result. Validation failures are delivered on the channel and
// recorded under the file ID like any other upload error.
func (p *Pipeline) Upload(ctx context.Context, name, mimeType string, data []byte) (string, <-chan Result) {
	fileID := uuid.New().String()
	results := make(chan Result, 1)

	logrus.WithFields(logrus.Fields{
		"function":  "Upload",
		"file_id":   fileID,
		"file_name": name,
		"mime_type": mimeType,
		"size":      len(data),
	}).Info("Starting attachment upload")

	if err := Validate(name, mimeType, int64(len(data))); err != nil {
		p.recordError(fileID, err)
		results <- Result{Err: err}
		close(results)
		return fileID, results
	}

	p.setProgress(fileID, 0)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(results)
		results <- p.run(ctx, fileID, name, mimeType, data)
	}()

	return fileID, results
}

// run drives one upload to completion: paced progress reports, then the
// storage write.
func (p *Pipeline) run(ctx context.Context, fileID, name, mimeType string, data []byte) Result {
	p.mu.Lock()
	delay := p.stepDelay
	p.mu.Unlock()

	for step := 1; step <= progressSteps; step++ {
		select {
		case <-ctx.Done():
			err := fmt.Errorf("upload cancelled: %w", ctx.Err())
			p.recordError(fileID, err)
			return Result{Err: err}
		case <-time.After(delay):
		}
		// Hold the last step for the storage write so progress stays
		// monotone and only reaches 100 on success.
		percent := float64(step) * 100 / progressSteps
		if step == progressSteps {
			percent = 99
		}
		p.setProgress(fileID, percent)
	}

	path := fileID + "/" + name
	url, err := p.storage.Upload(ctx, p.bucket, path, data)
	if err != nil {
		wrapped := fmt.Errorf("storage upload failed: %w", err)
		p.recordError(fileID, wrapped)
		logrus.WithFields(logrus.Fields{
			"function": "run",
			"file_id":  fileID,
			"error":    err.Error(),
		}).Error("Attachment upload failed")
		return Result{Err: wrapped}
	}

	p.setProgress(fileID, 100)

	uploaded := &UploadedFile{
		ID:         fileID,
		Name:       name,
		Size:       int64(len(data)),
		Category:   Classify(mimeType),
		MIMEType:   mimeType,
		URL:        url,
		UploadedAt: time.Now(),
	}

	// Success clears the progress entry; the error entry (if any from a
	// previous attempt) is cleared separately by the owner.
	p.ClearProgress(fileID)

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"file_id":  fileID,
		"url":      url,
	}).Info("Attachment upload completed")

	return Result{File: uploaded}
}

// setProgress records progress, keeping it monotonically increasing, and
// fires the progress callback.
func (p *Pipeline) setProgress(fileID string, percent float64) {
	p.mu.Lock()
	if current, ok := p.progress[fileID]; ok && percent < current {
		percent = current
	}
	p.progress[fileID] = percent
	cb := p.onProgress
	p.mu.Unlock()

	if cb != nil {
		cb(fileID, percent)
	}
}

// recordError stores the terminal error for a file and drops its progress.
func (p *Pipeline) recordError(fileID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[fileID] = err
	delete(p.progress, fileID)
}

// Progress returns the current progress for a file.
func (p *Pipeline) Progress(fileID string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	percent, ok := p.progress[fileID]
	return percent, ok
}

// ErrorFor returns the recorded error for a file.
func (p *Pipeline) ErrorFor(fileID string) (error, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	err, ok := p.errors[fileID]
	return err, ok
}

// ClearProgress removes the progress entry for a file.
func (p *Pipeline) ClearProgress(fileID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.progress, fileID)
}

// DismissError removes the error entry for a file.
func (p *Pipeline) DismissError(fileID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.errors, fileID)
}

// Wait blocks until all in-flight uploads settle. Used in teardown paths.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
