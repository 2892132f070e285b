package storage

import (
	"context"

	"github.com/slok/apkjob/internal/model"
)

// JobRepository is the interface for the submitted jobs journal.
type JobRepository interface {
	CreateJob(ctx context.Context, r model.JobRecord) error
	GetJob(ctx context.Context, jobID string) (*model.JobRecord, error)
	// ListJobs returns the most recently submitted jobs first, limit <= 0 means all.
	ListJobs(ctx context.Context, limit int) ([]model.JobRecord, error)
	UpdateJob(ctx context.Context, r model.JobRecord) error
}
