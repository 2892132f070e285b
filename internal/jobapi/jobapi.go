package jobapi

import (
	"context"
	"io"

	"github.com/slok/apkjob/internal/model"
)

// API is the job server contract used by the client.
type API interface {
	// Upload submits a new job and returns the job ID assigned by the server.
	Upload(ctx context.Context, req model.UploadRequest) (jobID string, err error)
	// Status returns the current status snapshot of a job.
	Status(ctx context.Context, jobID string) (*model.JobStatus, error)
	// Download returns the result file of a completed job.
	Download(ctx context.Context, jobID string) (*Download, error)
	// DownloadURL returns the URL where the result of a job can be fetched.
	DownloadURL(jobID string) string
}

// Download is a job result stream, callers must close the body.
type Download struct {
	Filename  string
	SizeBytes int64 // -1 when unknown.
	Body      io.ReadCloser
}

// ResponseError is returned when the server answers a request with a failure.
// Message is the server provided error text or a generic one.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string { return e.Message }
