package history

import (
	"context"
	"fmt"

	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.JobRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists the jobs submitted by this client.
type Service struct {
	repo   storage.JobRepository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	// Limit is the max number of jobs, zero or less returns all.
	Limit int
	// StatusFilter only returns jobs with this status when set.
	StatusFilter *model.JobStatusKind
}

// Run lists the journaled jobs, the most recent first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.JobRecord, error) {
	s.logger.Debugf("listing job history (limit: %d)", req.Limit)

	limit := req.Limit
	if req.StatusFilter != nil {
		// The limit applies after filtering.
		limit = 0
	}

	records, err := s.repo.ListJobs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list jobs: %w", err)
	}

	if req.StatusFilter != nil {
		filtered := make([]model.JobRecord, 0, len(records))
		for _, r := range records {
			if r.Status == *req.StatusFilter {
				filtered = append(filtered, r)
			}
		}
		records = filtered
		if req.Limit > 0 && len(records) > req.Limit {
			records = records[:req.Limit]
		}
	}

	s.logger.Debugf("found %d jobs", len(records))
	return records, nil
}
