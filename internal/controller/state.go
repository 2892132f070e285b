package controller

import (
	"time"

	"github.com/slok/apkjob/internal/model"
)

// Screen is one of the mutually exclusive workflow screens.
type Screen string

const (
	ScreenUpload     Screen = "upload"
	ScreenOptions    Screen = "options"
	ScreenProcessing Screen = "processing"
	ScreenComplete   Screen = "complete"
	ScreenError      Screen = "error"
)

// SelectSource is how a file was picked.
type SelectSource int

const (
	// SourceBrowse is a file picked with the file picker.
	SourceBrowse SelectSource = iota
	// SourceDrop is a file dropped on the upload area.
	SourceDrop
)

// User facing messages.
const (
	MsgInvalidFile  = "Please select a valid APK file"
	MsgNoFile       = "Please select an APK file first"
	MsgInvalidMode  = "Please select a valid mode"
	MsgUploadFailed = "Upload failed"
	MsgJobFailed    = "Job failed"

	SubmitLabel     = "Process APK"
	SubmittingLabel = "Uploading..."
)

// FileInfo is the displayed information of the selected file.
type FileInfo struct {
	Name      string
	SizeBytes int64
}

// Result is the displayed information of a completed job.
type Result struct {
	Filename       string
	OutputFilename string
	JobID          string
	UploadURL      string
	// DownloadURL is where the result file can be fetched from.
	DownloadURL string
}

// State is the view-model published to the views on every change.
type State struct {
	Screen Screen

	// File is the selected file, nil shows the upload prompt.
	File *FileInfo
	// PickerValue is the file picker value, only set by browse selections.
	PickerValue string

	Form        model.FormOptions
	Submitting  bool
	SubmitLabel string

	JobID         string
	Mode          string
	StartedAt     time.Time
	Progress      int
	StatusMessage string
	Polling       bool

	Result       *Result
	ErrorMessage string
}

// View receives the controller state every time it changes.
// Render is called with the controller lock held, it must not call the controller back.
type View interface {
	Render(s State)
}

// ViewFunc is a helper to use functions as views.
type ViewFunc func(s State)

// Render satisfies View.
func (f ViewFunc) Render(s State) { f(s) }
