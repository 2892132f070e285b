package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/slok/apkjob/internal/conventions"
	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/printer"
)

// ServiceConfig is the configuration for the download service.
type ServiceConfig struct {
	API    jobapi.API
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.API == nil {
		return fmt.Errorf("job API is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Download"})

	return nil
}

// Service stores the result of completed jobs on disk.
type Service struct {
	api    jobapi.API
	logger log.Logger
}

// NewService creates a new download service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		api:    cfg.API,
		logger: cfg.Logger,
	}, nil
}

// Request represents the download request parameters.
type Request struct {
	JobID string
	// OutputPath is the destination file, when empty the server file name is used inside OutputDir.
	OutputPath string
	OutputDir  string
	// StatusWriter receives the download progress, optional.
	StatusWriter io.Writer
}

// Response is the downloaded result information.
type Response struct {
	Path      string
	SizeBytes int64
}

// Run downloads the job result. The file is written to a temporary file
// and renamed once complete, so a failed download never leaves a partial result.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.JobID == "" {
		return nil, fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	dl, err := s.api.Download(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("could not download job result: %w", err)
	}

	return s.Store(dl, req)
}

// Store writes an already requested download to disk and closes it.
func (s *Service) Store(dl *jobapi.Download, req Request) (*Response, error) {
	defer dl.Body.Close()

	dstPath := req.OutputPath
	if dstPath == "" {
		dstPath = filepath.Join(req.OutputDir, conventions.DownloadFilename(dl.Filename))
	}

	s.logger.Debugf("downloading job %s result into %s", req.JobID, dstPath)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}

	size, err := writeFile(dstPath, dl, req.StatusWriter)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Result saved to %s", dstPath)

	return &Response{Path: dstPath, SizeBytes: size}, nil
}

func writeFile(dstPath string, dl *jobapi.Download, statusWriter io.Writer) (int64, error) {
	f, err := os.CreateTemp(filepath.Dir(dstPath), "."+filepath.Base(dstPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating file for %s: %w", dstPath, err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	var dst io.Writer = f
	if statusWriter != nil {
		pw := printer.NewProgressWriter(f, statusWriter, dl.SizeBytes)
		defer pw.Finish()
		dst = pw
	}

	n, err := io.Copy(dst, dl.Body)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("writing file %s: %w", dstPath, err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing file %s: %w", dstPath, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		return 0, fmt.Errorf("moving file to %s: %w", dstPath, err)
	}

	return n, nil
}
