package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.JobRepository.
type Repository struct {
	jobs   map[string]model.JobRecord
	mu     sync.RWMutex
	logger log.Logger
}

var _ storage.JobRepository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		jobs:   make(map[string]model.JobRecord),
		logger: cfg.Logger,
	}, nil
}

// CreateJob stores a new job record.
func (r *Repository) CreateJob(ctx context.Context, rec model.JobRecord) error {
	if rec.JobID == "" {
		return fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[rec.JobID]; ok {
		return fmt.Errorf("job %s: %w", rec.JobID, model.ErrAlreadyExists)
	}

	r.jobs[rec.JobID] = rec
	r.logger.Debugf("Created job in repository: %s", rec.JobID)

	return nil
}

// GetJob retrieves a job record by the server job ID.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*model.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}

	return &rec, nil
}

// ListJobs returns the job records, newest first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]model.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]model.JobRecord, 0, len(r.jobs))
	for _, rec := range r.jobs {
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].SubmittedAt.Equal(recs[j].SubmittedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].SubmittedAt.After(recs[j].SubmittedAt)
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	return recs, nil
}

// UpdateJob replaces an existing job record.
func (r *Repository) UpdateJob(ctx context.Context, rec model.JobRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[rec.JobID]; !ok {
		return fmt.Errorf("job %s: %w", rec.JobID, model.ErrNotFound)
	}

	r.jobs[rec.JobID] = rec
	r.logger.Debugf("Updated job in repository: %s", rec.JobID)

	return nil
}
