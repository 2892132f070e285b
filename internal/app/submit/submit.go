package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
)

// ServiceConfig is the configuration for the submit service.
type ServiceConfig struct {
	API jobapi.API
	// Repository is the job history, optional.
	Repository   storage.JobRepository
	ServerURL    string
	PollInterval time.Duration
	OptionsDelay time.Duration
	DefaultForm  model.FormOptions
	Modes        []string
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.API == nil {
		return fmt.Errorf("job API is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service runs the whole submission workflow of a single APK.
type Service struct {
	cfg ServiceConfig
}

// NewService creates a new submit service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{cfg: cfg}, nil
}

// Request represents the submit request parameters.
type Request struct {
	File model.SelectedFile
	// Form replaces the configured default form when set.
	Form *model.FormOptions
	// Views are subscribed to the workflow state changes.
	Views []controller.View
	// Store receives the job result when set, the download is closed afterwards.
	Store func(dl *jobapi.Download) error
}

// Response is the final workflow state.
type Response struct {
	State controller.State
}

// Run selects the file, waits for the options screen, processes it and waits
// until the job completes or fails.
//
// A failed job is not an error, the returned state shows the error screen.
// Errors are returned when the workflow could not run (invalid file, upload
// failures, cancellations).
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	ctrl, err := controller.New(controller.Config{
		API:          s.cfg.API,
		Repository:   s.cfg.Repository,
		ServerURL:    s.cfg.ServerURL,
		PollInterval: s.cfg.PollInterval,
		OptionsDelay: s.cfg.OptionsDelay,
		DefaultForm:  s.cfg.DefaultForm,
		Modes:        s.cfg.Modes,
		Logger:       s.cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create controller: %w", err)
	}
	defer ctrl.Close()

	for _, v := range req.Views {
		unsubscribe := ctrl.Subscribe(v)
		defer unsubscribe()
	}

	screens := make(chan controller.Screen, 16)
	unsubscribe := ctrl.Subscribe(screenNotifier(screens))
	defer unsubscribe()

	if err := ctrl.Select(req.File, controller.SourceBrowse); err != nil {
		return nil, err
	}

	sc, err := waitScreen(ctx, screens, controller.ScreenOptions)
	if err != nil {
		return nil, err
	}
	if sc == controller.ScreenError {
		return &Response{State: ctrl.State()}, nil
	}

	if req.Form != nil {
		ctrl.SetForm(*req.Form)
	}
	if err := ctrl.Process(ctx); err != nil {
		return nil, err
	}

	if _, err := waitScreen(ctx, screens, controller.ScreenComplete); err != nil {
		return nil, err
	}

	st := ctrl.State()
	if st.Screen != controller.ScreenComplete || req.Store == nil {
		return &Response{State: st}, nil
	}

	dl, err := ctrl.Download(ctx)
	if err != nil {
		return nil, err
	}
	defer dl.Body.Close()

	if err := req.Store(dl); err != nil {
		return nil, fmt.Errorf("could not store job result: %w", err)
	}

	return &Response{State: st}, nil
}

// screenNotifier sends the screen changes to a channel, it never blocks the controller.
func screenNotifier(screens chan<- controller.Screen) controller.View {
	var last controller.Screen
	return controller.ViewFunc(func(s controller.State) {
		if s.Screen == last {
			return
		}
		last = s.Screen
		select {
		case screens <- s.Screen:
		default:
		}
	})
}

// waitScreen blocks until the wanted screen is shown. An error screen always ends the wait.
func waitScreen(ctx context.Context, screens <-chan controller.Screen, want controller.Screen) (controller.Screen, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case s := <-screens:
			if s == want || s == controller.ScreenError {
				return s, nil
			}
		}
	}
}
