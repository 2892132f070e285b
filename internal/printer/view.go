package printer

import (
	"fmt"
	"io"
	"time"

	"github.com/slok/apkjob/internal/controller"
)

// TerminalView renders the controller state as plain terminal lines.
//
// It only prints what changed since the last render, progress updates are
// rewritten in place on the same line.
type TerminalView struct {
	writer io.Writer
	now    func() time.Time

	rendered     bool
	last         controller.State
	progressLine bool
}

var _ controller.View = &TerminalView{}

// NewTerminalView returns a new terminal view.
func NewTerminalView(w io.Writer) *TerminalView {
	return &TerminalView{writer: w, now: time.Now}
}

// Render satisfies controller.View.
func (v *TerminalView) Render(s controller.State) {
	prev := v.last
	first := !v.rendered
	v.rendered = true
	v.last = s

	if s.File != nil && (prev.File == nil || *prev.File != *s.File) {
		v.linef("Selected file: %s (%s)", s.File.Name, FormatMB(s.File.SizeBytes))
	}

	if first || s.Screen != prev.Screen {
		v.renderScreen(s)
		return
	}

	if s.Screen != controller.ScreenProcessing {
		return
	}
	if s.JobID != "" && s.JobID != prev.JobID {
		v.linef("Job ID: %s", s.JobID)
	}
	if s.JobID != "" && (s.Progress != prev.Progress || s.StatusMessage != prev.StatusMessage) {
		v.printProgress(s)
	}
}

func (v *TerminalView) renderScreen(s controller.State) {
	switch s.Screen {
	case controller.ScreenUpload:
		if s.File == nil {
			v.linef("Select an APK file to start")
		}
	case controller.ScreenOptions:
		v.linef("Options: mode=%s lib=%s", s.Form.Mode, s.Form.WithDefaults().LibName)
	case controller.ScreenProcessing:
		v.linef("Processing (mode: %s), started at %s", s.Mode, s.StartedAt.Format(time.TimeOnly))
		if s.JobID != "" {
			v.linef("Job ID: %s", s.JobID)
		}
	case controller.ScreenComplete:
		v.linef("Completed in %s", FormatElapsed(v.now().Sub(s.StartedAt)))
		if s.Result != nil {
			v.linef("  %s -> %s", s.Result.Filename, s.Result.OutputFilename)
			if s.Result.DownloadURL != "" {
				v.linef("  Download: %s", s.Result.DownloadURL)
			}
			if s.Result.UploadURL != "" {
				v.linef("  Uploaded to: %s", s.Result.UploadURL)
			}
		}
	case controller.ScreenError:
		v.linef("Error: %s", s.ErrorMessage)
	}
}

func (v *TerminalView) printProgress(s controller.State) {
	fmt.Fprintf(v.writer, "\r  [%s] %3d%% %s", progressBar(float64(s.Progress)), s.Progress, s.StatusMessage)
	v.progressLine = true
}

// linef ends any in place progress line before printing a full line.
func (v *TerminalView) linef(format string, args ...any) {
	if v.progressLine {
		fmt.Fprintln(v.writer)
		v.progressLine = false
	}
	fmt.Fprintf(v.writer, format+"\n", args...)
}
