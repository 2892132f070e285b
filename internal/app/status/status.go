package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	API jobapi.API
	// Repository is the job history, optional.
	Repository storage.JobRepository
	Logger     log.Logger
	Now        func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.API == nil {
		return fmt.Errorf("job API is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	if c.Now == nil {
		c.Now = time.Now
	}

	return nil
}

// Service retrieves a job status snapshot.
type Service struct {
	api    jobapi.API
	repo   storage.JobRepository
	logger log.Logger
	now    func() time.Time
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		api:    cfg.API,
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    cfg.Now,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	JobID string
}

// Run gets the status of a job from the server. When the job is in the
// history its record is updated with the new status.
func (s *Service) Run(ctx context.Context, req Request) (*model.JobStatus, error) {
	if req.JobID == "" {
		return nil, fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting status for job: %s", req.JobID)
	st, err := s.api.Status(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("could not get job status: %w", err)
	}

	s.updateHistory(ctx, req.JobID, *st)

	return st, nil
}

func (s *Service) updateHistory(ctx context.Context, jobID string, st model.JobStatus) {
	if s.repo == nil {
		return
	}

	rec, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Warningf("could not get job %s from history: %s", jobID, err)
		}
		return
	}

	if rec.Status == st.Status && rec.Message == st.Message {
		return
	}

	rec.ApplyStatus(st, s.now().UTC())
	if err := s.repo.UpdateJob(ctx, *rec); err != nil {
		s.logger.Warningf("could not update job %s history: %s", jobID, err)
	}
}
