package controller

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
)

// ErrNoJob is returned by operations that need a job when there is none.
var ErrNoJob = fmt.Errorf("no active job: %w", model.ErrNotFound)

// Config is the controller configuration.
type Config struct {
	API jobapi.API
	// Repository journals the submitted jobs, optional.
	Repository storage.JobRepository
	// ServerURL is stored on the journal records.
	ServerURL    string
	PollInterval time.Duration
	OptionsDelay time.Duration
	// DefaultForm is the form on new sessions and after a reset.
	DefaultForm model.FormOptions
	// Modes are the accepted modes, empty accepts any.
	Modes  []string
	Logger log.Logger
	// Now is the clock, defaults to time.Now.
	Now func() time.Time
}

func (c *Config) defaults() error {
	if c.API == nil {
		return fmt.Errorf("job API is required")
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative")
	}
	if c.PollInterval == 0 {
		c.PollInterval = model.DefaultPollInterval
	}

	if c.OptionsDelay < 0 {
		return fmt.Errorf("options delay can't be negative")
	}
	if c.OptionsDelay == 0 {
		c.OptionsDelay = model.DefaultOptionsDelay
	}

	if c.DefaultForm == (model.FormOptions{}) {
		c.DefaultForm = model.DefaultFormOptions()
	}
	if c.DefaultForm.Mode == "" {
		c.DefaultForm.Mode = model.DefaultMode
	}
	c.DefaultForm = c.DefaultForm.WithDefaults()
	if err := c.DefaultForm.ValidateMode(c.Modes); err != nil {
		return fmt.Errorf("invalid default form: %w", err)
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "controller.Controller"})

	return nil
}

// Controller drives the job submission workflow. It owns the selected file,
// the current job and the status polling task, and publishes a State to the
// subscribed views on every change.
//
// Only one job is tracked at a time, Reset is the way to start a new session.
type Controller struct {
	api          jobapi.API
	repo         storage.JobRepository
	serverURL    string
	pollInterval time.Duration
	optionsDelay time.Duration
	defaultForm  model.FormOptions
	modes        []string
	logger       log.Logger
	now          func() time.Time

	mu         sync.Mutex
	state      State
	file       *model.SelectedFile
	record     *model.JobRecord
	views      map[int]View
	nextViewID int

	// session changes on every reset so in-flight work from an old session is dropped.
	session    int
	optionsGen int
	optionsT   *time.Timer
	pollCancel context.CancelFunc
	pollWG     sync.WaitGroup
}

// New returns a new controller showing the upload screen.
func New(cfg Config) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Controller{
		api:          cfg.API,
		repo:         cfg.Repository,
		serverURL:    cfg.ServerURL,
		pollInterval: cfg.PollInterval,
		optionsDelay: cfg.OptionsDelay,
		defaultForm:  cfg.DefaultForm,
		modes:        cfg.Modes,
		logger:       cfg.Logger,
		now:          cfg.Now,
		views:        map[int]View{},
		state: State{
			Screen:      ScreenUpload,
			Form:        cfg.DefaultForm,
			SubmitLabel: SubmitLabel,
		},
	}, nil
}

// Subscribe registers a view, the view is rendered right away with the current state.
// The returned function unsubscribes the view.
func (c *Controller) Subscribe(v View) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextViewID
	c.nextViewID++
	c.views[id] = v
	v.Render(c.state)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.views, id)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Select sets the file to be submitted. Non APK files are rejected showing the error screen.
// Accepted files move to the options screen after the options delay.
func (c *Controller) Select(f model.SelectedFile, src SelectSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.publishLocked()

	if !f.IsAPK() {
		if src == SourceBrowse {
			c.state.PickerValue = ""
		}
		c.showErrorLocked(MsgInvalidFile)
		return fmt.Errorf("%s: %w", MsgInvalidFile, model.ErrNotValid)
	}

	c.file = &f
	c.state.File = &FileInfo{Name: f.Name, SizeBytes: f.Size}
	if src == SourceBrowse {
		c.state.PickerValue = f.Name
	}
	c.logger.Debugf("File selected: %s (%d bytes)", f.Name, f.Size)

	c.cancelOptionsLocked()
	gen := c.optionsGen
	c.optionsT = time.AfterFunc(c.optionsDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.optionsGen {
			return
		}
		c.optionsT = nil
		c.showScreenLocked(ScreenOptions)
		c.publishLocked()
	})

	return nil
}

// Remove unsets the selected file and shows the upload prompt again, the screen is not changed.
func (c *Controller) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.file = nil
	c.state.File = nil
	c.state.PickerValue = ""
	c.cancelOptionsLocked()
	c.publishLocked()
}

// Back returns from the options screen to the upload screen.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.showScreenLocked(ScreenUpload)
	c.publishLocked()
}

// Retry returns from the error screen to the upload screen.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.showScreenLocked(ScreenUpload)
	c.publishLocked()
}

// SetForm sets the form values used by the next Process.
func (c *Controller) SetForm(f model.FormOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Form = f
	c.publishLocked()
}

// Process uploads the selected file with the current form and starts polling the job status.
// Errors are shown on the error screen and returned.
func (c *Controller) Process(ctx context.Context) error {
	c.mu.Lock()

	if c.file == nil {
		c.showErrorLocked(MsgNoFile)
		c.publishLocked()
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", MsgNoFile, model.ErrNotValid)
	}

	if c.state.Submitting {
		c.mu.Unlock()
		return fmt.Errorf("upload already in progress: %w", model.ErrNotValid)
	}

	form := c.state.Form.WithDefaults()
	if err := form.ValidateMode(c.modes); err != nil {
		c.showErrorLocked(MsgInvalidMode)
		c.publishLocked()
		c.mu.Unlock()
		return err
	}

	file := *c.file
	session := c.session

	c.showScreenLocked(ScreenProcessing)
	c.state.Mode = model.ModeDisplay(form.Mode)
	c.state.StartedAt = c.now()
	c.state.Progress = 0
	c.state.StatusMessage = ""
	c.state.Result = nil
	c.state.Submitting = true
	c.state.SubmitLabel = SubmittingLabel
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Infof("Uploading %s (mode: %s)", file.Name, form.Mode)
	jobID, err := c.api.Upload(ctx, model.UploadRequest{File: file, Options: form})

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.publishLocked()

	c.state.Submitting = false
	c.state.SubmitLabel = SubmitLabel

	if session != c.session {
		c.logger.Warningf("Discarding upload result of a reset session")
		if err != nil {
			return fmt.Errorf("could not upload APK: %w", err)
		}
		return nil
	}

	if err != nil {
		c.showErrorLocked(uploadErrorMessage(err))
		return fmt.Errorf("could not upload APK: %w", err)
	}

	c.logger.Infof("Job created: %s", jobID)
	c.state.JobID = jobID
	c.journalCreateLocked(ctx, file, form, jobID)
	c.startPollingLocked()

	return nil
}

func uploadErrorMessage(err error) string {
	var respErr *jobapi.ResponseError
	if errors.As(err, &respErr) {
		if respErr.Message != "" {
			return respErr.Message
		}
		return MsgUploadFailed
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUploadFailed
}

// Download returns the result of the current job. It returns ErrNoJob when there is no job.
func (c *Controller) Download(ctx context.Context) (*jobapi.Download, error) {
	c.mu.Lock()
	jobID := c.state.JobID
	c.mu.Unlock()

	if jobID == "" {
		return nil, ErrNoJob
	}

	dl, err := c.api.Download(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("could not download job %s result: %w", jobID, err)
	}
	return dl, nil
}

// DownloadURL returns the URL of the current job result, empty when there is no job.
func (c *Controller) DownloadURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.downloadURLLocked()
}

func (c *Controller) downloadURLLocked() string {
	if c.state.JobID == "" {
		return ""
	}
	return c.api.DownloadURL(c.state.JobID)
}

// Reset clears the session: file, job, polling and processing options, and shows the upload screen.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session++
	c.file = nil
	c.record = nil
	c.stopPollingLocked()
	c.cancelOptionsLocked()

	// An in-flight upload keeps the submit control locked until it returns.
	submitting, label := c.state.Submitting, c.state.SubmitLabel

	// Notification settings survive a reset.
	form := c.state.Form
	form.Mode = c.defaultForm.Mode
	form.LibName = c.defaultForm.LibName
	form.CustomOptions = c.defaultForm.CustomOptions

	c.state = State{
		Screen:      ScreenUpload,
		Form:        form,
		Submitting:  submitting,
		SubmitLabel: label,
	}
	c.logger.Debugf("Session reset")
	c.publishLocked()
}

// Close stops any background task and waits for them to end.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopPollingLocked()
	c.cancelOptionsLocked()
	c.mu.Unlock()

	c.pollWG.Wait()
}

func (c *Controller) showScreenLocked(s Screen) {
	if c.state.Screen != s {
		c.logger.Debugf("Screen %s -> %s", c.state.Screen, s)
	}
	c.state.Screen = s
}

func (c *Controller) showErrorLocked(msg string) {
	c.showScreenLocked(ScreenError)
	c.state.ErrorMessage = msg
	c.stopPollingLocked()
}

func (c *Controller) cancelOptionsLocked() {
	c.optionsGen++
	if c.optionsT != nil {
		c.optionsT.Stop()
		c.optionsT = nil
	}
}

func (c *Controller) publishLocked() {
	for _, v := range c.viewsInOrder() {
		v.Render(c.state)
	}
}

func (c *Controller) viewsInOrder() []View {
	views := make([]View, 0, len(c.views))
	for i := 0; i < c.nextViewID; i++ {
		if v, ok := c.views[i]; ok {
			views = append(views, v)
		}
	}
	return views
}

func (c *Controller) journalCreateLocked(ctx context.Context, file model.SelectedFile, form model.FormOptions, jobID string) {
	if c.repo == nil {
		return
	}

	now := c.now().UTC()
	rec := model.JobRecord{
		ID:          ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		JobID:       jobID,
		Filename:    file.Name,
		SizeBytes:   file.Size,
		Mode:        form.Mode,
		ServerURL:   c.serverURL,
		Status:      model.JobStatusQueued,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := c.repo.CreateJob(ctx, rec); err != nil {
		c.logger.Warningf("Could not journal job %s: %s", jobID, err)
		return
	}
	c.record = &rec
}

func (c *Controller) journalStatusLocked(ctx context.Context, st model.JobStatus) {
	if c.repo == nil || c.record == nil {
		return
	}
	if st.Status == c.record.Status {
		return
	}

	rec := *c.record
	rec.ApplyStatus(st, c.now().UTC())
	if err := c.repo.UpdateJob(ctx, rec); err != nil {
		c.logger.Warningf("Could not update journaled job %s: %s", rec.JobID, err)
		return
	}
	c.record = &rec
}
