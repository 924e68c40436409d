// Package file implements the attachment pipeline: validation,
// classification, and upload of message attachments.
//
// Validation accumulates every violation for a file rather than failing
// fast, so the caller can surface all problems at once. Uploads run
// asynchronously, keyed by a generated file ID, with monotonically
// increasing progress; a failure in one upload never blocks or corrupts
// others, and progress and error entries are cleared independently.
//
// Example:
//
//	pipeline := file.NewPipeline(file.NewMemStorage(), "attachments")
//	pipeline.OnProgress(func(fileID string, percent float64) {
//	    fmt.Printf("%s: %.0f%%\n", fileID, percent)
//	})
//	id, results := pipeline.Upload(ctx, "photo.png", "image/png", data)
//	res := <-results
package file
