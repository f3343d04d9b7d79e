package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
)

// FetchProgress is a spinner counting items while pages are fetched.
type FetchProgress struct {
	bar *progressbar.ProgressBar
}

// NewFetchProgress creates a spinner writing to w.
func NewFetchProgress(w io.Writer, description string) *FetchProgress {
	return &FetchProgress{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Add counts n more items.
func (p *FetchProgress) Add(n int) {
	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress spinner", "error", err)
	}
}

// Count is the number of items counted so far.
func (p *FetchProgress) Count() int64 {
	return p.bar.State().CurrentNum
}

// Finish clears the spinner.
func (p *FetchProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress spinner", "error", err)
	}
}
