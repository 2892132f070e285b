package fake

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
)

// APIConfig is the configuration for the fake job API.
type APIConfig struct {
	// ProgressStep is the progress added on every status request, defaults to 25.
	ProgressStep int
	// FailAt makes jobs fail when reaching this progress, disabled when zero.
	FailAt int
	Logger log.Logger
}

func (c *APIConfig) defaults() error {
	if c.ProgressStep == 0 {
		c.ProgressStep = 25
	}
	if c.ProgressStep < 0 {
		return fmt.Errorf("progress step can't be negative")
	}
	if c.FailAt < 0 || c.FailAt > 100 {
		return fmt.Errorf("fail at must be in the [0, 100] range")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "jobapi.Fake"})
	return nil
}

type job struct {
	filename string
	content  []byte
	options  model.FormOptions
	status   model.JobStatus
}

// API is a fake implementation of the jobapi.API interface.
// It simulates the job server by moving the job forward on every status request.
type API struct {
	jobs   map[string]*job
	step   int
	failAt int
	mu     sync.Mutex
	logger log.Logger
}

var _ jobapi.API = &API{}

// NewAPI returns a new fake job API.
func NewAPI(cfg APIConfig) (*API, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &API{
		jobs:   map[string]*job{},
		step:   cfg.ProgressStep,
		failAt: cfg.FailAt,
		logger: cfg.Logger,
	}, nil
}

// Upload stores the job in memory.
func (a *API) Upload(ctx context.Context, req model.UploadRequest) (string, error) {
	if err := req.File.Validate(); err != nil {
		return "", fmt.Errorf("invalid file: %w", err)
	}

	r, err := req.File.Open()
	if err != nil {
		return "", fmt.Errorf("could not open file: %w", err)
	}
	defer r.Close()
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("could not read file: %w", err)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.jobs[id] = &job{
		filename: req.File.Name,
		content:  content,
		options:  req.Options.WithDefaults(),
		status: model.JobStatus{
			Status:  model.JobStatusQueued,
			Message: "APK uploaded successfully. Processing will start shortly...",
		},
	}
	a.logger.Infof("Created fake job: %s (file: %s)", id, req.File.Name)

	return id, nil
}

// Status moves the job forward one step and returns the new status.
func (a *API) Status(ctx context.Context, jobID string) (*model.JobStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	j, ok := a.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}

	if !j.status.Status.IsTerminal() {
		a.advance(j)
	}

	st := j.status
	return &st, nil
}

func (a *API) advance(j *job) {
	j.status.Progress += a.step
	if j.status.Progress > 100 {
		j.status.Progress = 100
	}

	switch {
	case a.failAt > 0 && j.status.Progress >= a.failAt:
		j.status.Status = model.JobStatusFailed
		j.status.Message = "Processing failed"
	case j.status.Progress >= 100:
		j.status.Status = model.JobStatusCompleted
		j.status.Message = "APK modification completed successfully!"
		j.status.Filename = j.filename
		j.status.OutputFilename = "modified_" + strings.TrimSuffix(j.filename, model.APKExtension) + model.APKExtension
	default:
		j.status.Status = model.JobStatusProcessing
		j.status.Message = fmt.Sprintf("Processing (%s mode)...", j.options.Mode)
	}
}

// Download returns the original content of a completed job.
func (a *API) Download(ctx context.Context, jobID string) (*jobapi.Download, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	j, ok := a.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	if j.status.Status != model.JobStatusCompleted {
		return nil, fmt.Errorf("job %s is not completed: %w", jobID, model.ErrNotValid)
	}

	return &jobapi.Download{
		Filename:  j.status.OutputFilename,
		SizeBytes: int64(len(j.content)),
		Body:      io.NopCloser(bytes.NewReader(j.content)),
	}, nil
}

// DownloadURL returns a fake URL for the job result.
func (a *API) DownloadURL(jobID string) string {
	return "fake://download/" + jobID
}
