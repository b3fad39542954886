package utils

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker wraps a download stream in a progress bar. In quiet mode
// it is a no-op passthrough so callers don't need to branch.
type ProgressTracker struct {
	bar   *pb.ProgressBar
	quiet bool
}

// NewProgressTracker creates a progress tracker for total bytes. A total of
// -1 (unknown Content-Length) renders a counter without a percentage.
func NewProgressTracker(label string, total int64, quiet bool) *ProgressTracker {
	tracker := &ProgressTracker{quiet: quiet}

	if !quiet {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }}`
		size := total
		if size < 0 {
			size = 0
		}
		bar := pb.ProgressBarTemplate(tmpl).Start64(size)
		bar.Set(pb.Bytes, true)
		bar.Set(pb.SIBytesPrefix, true)
		bar.Set("prefix", label+" ")
		tracker.bar = bar
	}

	return tracker
}

// Reader proxies r through the progress bar
func (p *ProgressTracker) Reader(r io.Reader) io.Reader {
	if p.bar == nil {
		return r
	}
	return p.bar.NewProxyReader(r)
}

// Finish completes the progress bar
func (p *ProgressTracker) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
