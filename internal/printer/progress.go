package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const progressBarWidth = 40

// progressBar returns a fixed width bar for a 0-100 percentage.
func progressBar(pct float64) string {
	filled := int(pct / 100 * progressBarWidth)
	switch {
	case filled < 0:
		filled = 0
	case filled > progressBarWidth:
		filled = progressBarWidth
	}
	return strings.Repeat("=", filled) + strings.Repeat(" ", progressBarWidth-filled)
}

// ProgressWriter wraps an io.Writer to display download progress.
type ProgressWriter struct {
	dst          io.Writer
	statusWriter io.Writer
	total        int64
	written      int64
	mu           sync.Mutex
}

// NewProgressWriter creates a new progress writer.
// dst receives the data and statusWriter the progress output.
// If total is 0 or negative only the written bytes are shown.
func NewProgressWriter(dst io.Writer, statusWriter io.Writer, total int64) *ProgressWriter {
	return &ProgressWriter{
		dst:          dst,
		statusWriter: statusWriter,
		total:        total,
	}
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.dst.Write(p)

	pw.mu.Lock()
	pw.written += int64(n)
	pw.printProgress()
	pw.mu.Unlock()

	return n, err
}

// Written returns the bytes written so far.
func (pw *ProgressWriter) Written() int64 {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.written
}

// Finish prints the final progress line with a newline.
func (pw *ProgressWriter) Finish() {
	fmt.Fprintln(pw.statusWriter)
}

func (pw *ProgressWriter) printProgress() {
	if pw.total <= 0 {
		fmt.Fprintf(pw.statusWriter, "\r  %s downloaded", FormatFileSize(pw.written))
		return
	}

	pct := float64(pw.written) / float64(pw.total) * 100
	fmt.Fprintf(pw.statusWriter, "\r  [%s] %3.0f%% %s / %s", progressBar(pct), pct, FormatFileSize(pw.written), FormatFileSize(pw.total))
}
