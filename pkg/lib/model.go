package lib

import (
	"errors"
	"io/fs"
	"time"

	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/model"
)

// APIType identifies the job API implementation.
type APIType string

const (
	// APIREST talks to a real job server over HTTP.
	APIREST APIType = "rest"
	// APIFake simulates a job server in memory, for tests.
	APIFake APIType = "fake"
)

var (
	// ErrNotFound is returned when a job does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
	// ErrJobFailed is returned when the server reports a job as failed.
	ErrJobFailed = errors.New("job failed")
)

// SubmitOpts are the options of a job submission. Empty fields use the defaults.
type SubmitOpts struct {
	Mode          string
	LibName       string
	CustomOptions string
	BotToken      string
	ChatID        string
	UploadServer  string

	// OutputPath downloads the result to this file when set.
	OutputPath string
}

// Result is a completed job.
type Result struct {
	JobID          string
	Filename       string
	OutputFilename string
	UploadURL      string
	DownloadURL    string
	// DownloadedPath is the local result file, empty when not downloaded.
	DownloadedPath string
}

// JobStatus is a job status snapshot.
type JobStatus struct {
	Status         string
	Progress       int
	Message        string
	Filename       string
	OutputFilename string
	UploadURL      string
}

// JobRecord is a journaled job.
type JobRecord struct {
	JobID          string
	Filename       string
	SizeBytes      int64
	Mode           string
	ServerURL      string
	Status         string
	Message        string
	OutputFilename string
	UploadURL      string
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

func (o SubmitOpts) toInternal(base model.FormOptions) model.FormOptions {
	f := base
	if o.Mode != "" {
		f.Mode = o.Mode
	}
	if o.LibName != "" {
		f.LibName = o.LibName
	}
	f.CustomOptions = o.CustomOptions
	f.BotToken = o.BotToken
	f.ChatID = o.ChatID
	f.UploadServer = o.UploadServer
	return f
}

func fromInternalResult(r controller.Result) *Result {
	return &Result{
		JobID:          r.JobID,
		Filename:       r.Filename,
		OutputFilename: r.OutputFilename,
		UploadURL:      r.UploadURL,
		DownloadURL:    r.DownloadURL,
	}
}

func fromInternalStatus(s model.JobStatus) *JobStatus {
	return &JobStatus{
		Status:         string(s.Status),
		Progress:       s.ProgressPercent(),
		Message:        s.DisplayMessage(),
		Filename:       s.Filename,
		OutputFilename: s.OutputFilename,
		UploadURL:      s.UploadURL,
	}
}

func fromInternalRecords(rs []model.JobRecord) []JobRecord {
	out := make([]JobRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, JobRecord{
			JobID:          r.JobID,
			Filename:       r.Filename,
			SizeBytes:      r.SizeBytes,
			Mode:           r.Mode,
			ServerURL:      r.ServerURL,
			Status:         string(r.Status),
			Message:        r.Message,
			OutputFilename: r.OutputFilename,
			UploadURL:      r.UploadURL,
			SubmittedAt:    r.SubmittedAt,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return out
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return &mappedError{original: err, sentinel: ErrNotFound}
	case errors.Is(err, model.ErrNotValid):
		return &mappedError{original: err, sentinel: ErrNotValid}
	default:
		return err
	}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool { return target == e.sentinel }

func (e *mappedError) Unwrap() error { return e.original }
