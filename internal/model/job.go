package model

import (
	"strings"
	"time"
)

// JobStatusKind is the server reported state of a job.
//
// The set of values is owned by the server, the client only reacts to
// completed and failed, everything else is treated as in progress.
type JobStatusKind string

const (
	JobStatusQueued     JobStatusKind = "queued"
	JobStatusPending    JobStatusKind = "pending"
	JobStatusProcessing JobStatusKind = "processing"
	JobStatusCompleted  JobStatusKind = "completed"
	JobStatusFailed     JobStatusKind = "failed"
)

// IsTerminal returns true when the job will not change anymore.
func (k JobStatusKind) IsTerminal() bool {
	return k == JobStatusCompleted || k == JobStatusFailed
}

const (
	// DefaultStatusMessage is used when the server doesn't send a status message.
	DefaultStatusMessage = "Processing..."
	// DefaultOutputFilename is used when a completed job doesn't report its output name.
	DefaultOutputFilename = "modified.apk"
)

// JobStatus is a snapshot of a job fetched from the server.
type JobStatus struct {
	Status         JobStatusKind
	Progress       int
	Message        string
	Filename       string
	OutputFilename string
	UploadURL      string
}

// ProgressPercent returns the progress clamped to the [0, 100] range.
func (j JobStatus) ProgressPercent() int {
	switch {
	case j.Progress < 0:
		return 0
	case j.Progress > 100:
		return 100
	default:
		return j.Progress
	}
}

// DisplayMessage returns the status message or the default one when missing.
func (j JobStatus) DisplayMessage() string {
	if j.Message == "" {
		return DefaultStatusMessage
	}
	return j.Message
}

// DisplayOutputFilename returns the output filename or the default one when missing.
func (j JobStatus) DisplayOutputFilename() string {
	if j.OutputFilename == "" {
		return DefaultOutputFilename
	}
	return j.OutputFilename
}

// UploadRequest is everything sent to the server to start a new job.
type UploadRequest struct {
	File    SelectedFile
	Options FormOptions
}

// JobRecord is a local journal entry of a job submitted by this client.
type JobRecord struct {
	ID             string
	JobID          string
	Filename       string
	SizeBytes      int64
	Mode           string
	ServerURL      string
	Status         JobStatusKind
	Message        string
	OutputFilename string
	UploadURL      string
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// ApplyStatus updates the record with the information of a status snapshot.
func (r *JobRecord) ApplyStatus(s JobStatus, at time.Time) {
	r.Status = s.Status
	r.Message = s.Message
	if s.OutputFilename != "" {
		r.OutputFilename = s.OutputFilename
	}
	if s.UploadURL != "" {
		r.UploadURL = s.UploadURL
	}
	r.UpdatedAt = at
}

// ModeDisplay returns the mode the way it's shown to users.
func ModeDisplay(mode string) string {
	return strings.ToUpper(mode)
}
