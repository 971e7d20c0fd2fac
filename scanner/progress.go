package scanner

import (
	"io"
	"sync"
	"time"

	"imagededup/logging"

	"github.com/schollz/progressbar/v3"
)

// ProgressTracker consumes fingerprint results and reports progress
type ProgressTracker struct {
	processed int
	errors    int
	total     int
	started   time.Time
	bar       *progressbar.ProgressBar
	done      chan struct{}
	mu        sync.Mutex
}

// NewProgressTracker starts consuming results until the channel is closed.
// A bar is drawn on barOut unless it is nil.
func NewProgressTracker(total int, barOut io.Writer, resultsChan <-chan ProcessImageResult) *ProgressTracker {
	tracker := &ProgressTracker{
		total:   total,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	if barOut != nil && total > 0 {
		tracker.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(barOut),
			progressbar.OptionSetDescription("fingerprinting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	go tracker.processResults(resultsChan)

	return tracker
}

// processResults updates the tracker state based on processing results
func (p *ProgressTracker) processResults(resultsChan <-chan ProcessImageResult) {
	defer close(p.done)

	for result := range resultsChan {
		p.mu.Lock()
		p.processed++
		if !result.Success {
			p.errors++
		}
		p.mu.Unlock()

		if result.Success {
			logging.LogImageProcessed(result.Path, true, "")
		} else if result.Error != nil {
			logging.LogImageProcessed(result.Path, false, result.Error.Error())
		}

		if p.bar != nil {
			_ = p.bar.Add(1)
		}
	}

	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Wait blocks until every result has been consumed and returns the totals
func (p *ProgressTracker) Wait() FingerprintStats {
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()

	logging.DebugLog("Fingerprinted %d images in %v (%d failed)",
		p.processed, time.Since(p.started).Round(time.Millisecond), p.errors)

	return FingerprintStats{Total: p.processed, Failed: p.errors}
}
