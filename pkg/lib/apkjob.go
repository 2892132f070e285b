package lib

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/util/homedir"

	"github.com/slok/apkjob/internal/app/download"
	"github.com/slok/apkjob/internal/app/history"
	"github.com/slok/apkjob/internal/app/status"
	"github.com/slok/apkjob/internal/app/submit"
	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/conventions"
	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/jobapi/fake"
	"github.com/slok/apkjob/internal/jobapi/rest"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
	"github.com/slok/apkjob/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} talks to the default job server
// and journals the jobs in ~/.apkjob/history.db.
type Config struct {
	// ServerURL is the job server root URL.
	// Default: http://127.0.0.1:5000.
	ServerURL string

	// API selects the job API implementation.
	// Default: [APIREST]. Use [APIFake] for tests.
	API APIType

	// RateLimit is the max requests per second sent to the server.
	// Default: unlimited.
	RateLimit float64

	// PollInterval is the time between job status checks.
	// Default: 3s.
	PollInterval time.Duration

	// OptionsDelay is the wait between the file selection and the submission.
	// Default: 500ms.
	OptionsDelay time.Duration

	// Modes restricts the accepted processing modes, empty accepts any.
	Modes []string

	// HistoryDBPath is the job history SQLite database path.
	// Default: ~/.apkjob/history.db.
	HistoryDBPath string

	// NoHistory disables the job history.
	NoHistory bool

	// Logger receives structured log output from the SDK.
	// Default: noop (silent).
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.ServerURL == "" {
		c.ServerURL = model.DefaultServerURL
	}

	if c.API == "" {
		c.API = APIREST
	}
	if c.API != APIREST && c.API != APIFake {
		return fmt.Errorf("unsupported API type %q: %w", c.API, ErrNotValid)
	}

	if c.PollInterval == 0 {
		c.PollInterval = model.DefaultPollInterval
	}
	if c.OptionsDelay == 0 {
		c.OptionsDelay = model.DefaultOptionsDelay
	}

	if c.HistoryDBPath == "" && !c.NoHistory {
		c.HistoryDBPath = conventions.HistoryDBPath(homedir.HomeDir())
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point to submit APK jobs programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	cfg     model.ClientConfig
	api     jobapi.API
	repo    storage.JobRepository
	logger  log.Logger
	closeFn func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release the history
// database connection.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ccfg := model.DefaultClientConfig()
	ccfg.ServerURL = cfg.ServerURL
	ccfg.PollInterval = cfg.PollInterval
	ccfg.OptionsDelay = cfg.OptionsDelay
	ccfg.RateLimit = cfg.RateLimit
	ccfg.Modes = cfg.Modes
	if len(cfg.Modes) > 0 {
		ccfg.Form.Mode = cfg.Modes[0]
	}
	if err := ccfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", mapError(err))
	}

	var api jobapi.API
	switch cfg.API {
	case APIFake:
		fapi, err := fake.NewAPI(fake.APIConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create fake job API: %w", err)
		}
		api = fapi
	default:
		rapi, err := rest.NewClient(rest.ClientConfig{
			BaseURL:   cfg.ServerURL,
			RateLimit: cfg.RateLimit,
			Logger:    cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create job API client: %w", mapError(err))
		}
		api = rapi
	}

	c := &Client{
		cfg:    ccfg,
		api:    api,
		logger: cfg.Logger,
	}

	if !cfg.NoHistory {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.HistoryDBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create history repository: %w", err)
		}
		c.repo = repo
		c.closeFn = repo.Close
	}

	return c, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Submit uploads the APK at apkPath and blocks until the job completes or fails.
//
// When opts.OutputPath is set the result is downloaded to it. A failed job
// returns an error matching [ErrJobFailed].
func (c *Client) Submit(ctx context.Context, apkPath string, opts SubmitOpts) (*Result, error) {
	file, err := model.NewSelectedFileFromPath(apkPath)
	if err != nil {
		return nil, mapError(err)
	}
	if err := file.Validate(); err != nil {
		return nil, mapError(err)
	}

	form := opts.toInternal(c.cfg.Form)
	if err := form.ValidateMode(c.cfg.Modes); err != nil {
		return nil, mapError(err)
	}

	svc, err := submit.NewService(submit.ServiceConfig{
		API:          c.api,
		Repository:   c.repo,
		ServerURL:    c.cfg.ServerURL,
		PollInterval: c.cfg.PollInterval,
		OptionsDelay: c.cfg.OptionsDelay,
		DefaultForm:  c.cfg.Form,
		Modes:        c.cfg.Modes,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create submit service: %w", err)
	}

	var downloaded string
	req := submit.Request{File: file, Form: &form}
	if opts.OutputPath != "" {
		dsvc, err := download.NewService(download.ServiceConfig{API: c.api, Logger: c.logger})
		if err != nil {
			return nil, fmt.Errorf("could not create download service: %w", err)
		}
		req.Store = func(dl *jobapi.Download) error {
			resp, err := dsvc.Store(dl, download.Request{OutputPath: opts.OutputPath})
			if err != nil {
				return err
			}
			downloaded = resp.Path
			return nil
		}
	}

	resp, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	st := resp.State
	if st.Screen != controller.ScreenComplete || st.Result == nil {
		return nil, fmt.Errorf("%s: %w", st.ErrorMessage, ErrJobFailed)
	}

	res := fromInternalResult(*st.Result)
	res.DownloadedPath = downloaded
	return res, nil
}

// Status gets the current status of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	svc, err := status.NewService(status.ServiceConfig{
		API:        c.api,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create status service: %w", err)
	}

	st, err := svc.Run(ctx, status.Request{JobID: jobID})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalStatus(*st), nil
}

// Download stores the result of a completed job. When outputPath is empty the
// server file name is used inside the current directory. It returns the
// written file path.
func (c *Client) Download(ctx context.Context, jobID, outputPath string) (string, error) {
	svc, err := download.NewService(download.ServiceConfig{API: c.api, Logger: c.logger})
	if err != nil {
		return "", fmt.Errorf("could not create download service: %w", err)
	}

	resp, err := svc.Run(ctx, download.Request{JobID: jobID, OutputPath: outputPath})
	if err != nil {
		return "", mapError(err)
	}

	return resp.Path, nil
}

// History lists the journaled jobs, the most recent first. A limit of zero
// or less returns all of them.
func (c *Client) History(ctx context.Context, limit int) ([]JobRecord, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("job history is disabled: %w", ErrNotValid)
	}

	svc, err := history.NewService(history.ServiceConfig{Repository: c.repo, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create history service: %w", err)
	}

	recs, err := svc.Run(ctx, history.Request{Limit: limit})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalRecords(recs), nil
}
