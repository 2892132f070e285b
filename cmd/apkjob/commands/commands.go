package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/apkjob/internal/conventions"
	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/jobapi/fake"
	"github.com/slok/apkjob/internal/jobapi/rest"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
	storageio "github.com/slok/apkjob/internal/storage/io"
	"github.com/slok/apkjob/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// APITypeREST talks to a real job server.
	APITypeREST = "rest"
	// APITypeFake simulates a job server in memory.
	APITypeFake = "fake"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug         bool
	NoLog         bool
	NoColor       bool
	LoggerType    string
	ServerURL     string
	APIType       string
	ConfigPath    string
	ConfigSet     bool
	HistoryDBPath string
	NoHistory     bool
	EnvFile       string
	RateLimit     float64

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}
	home := homedir.HomeDir()

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("server", "Job server URL, overrides the config file.").StringVar(&c.ServerURL)
	app.Flag("api", "Job API implementation (rest, fake).").Default(APITypeREST).EnumVar(&c.APIType, APITypeREST, APITypeFake)
	app.Flag("config", "Path to the YAML client configuration.").Default(conventions.ConfigPath(home)).IsSetByUser(&c.ConfigSet).StringVar(&c.ConfigPath)
	app.Flag("history-db", "Path to the job history SQLite database file.").Default(conventions.HistoryDBPath(home)).StringVar(&c.HistoryDBPath)
	app.Flag("no-history", "Disable the job history.").BoolVar(&c.NoHistory)
	app.Flag("env-file", "Dotenv file loaded before reading the flags.").Default(conventions.EnvFile).StringVar(&c.EnvFile)
	app.Flag("rate-limit", "Max requests per second sent to the server, overrides the config file (0 uses the config).").Float64Var(&c.RateLimit)

	return c
}

// ClientConfig returns the client configuration from the config file with the
// global flag overrides applied. A missing default config file uses the defaults.
func (c RootCommand) ClientConfig(ctx context.Context) (model.ClientConfig, error) {
	cfg := model.DefaultClientConfig()

	if c.ConfigPath != "" {
		configPath, err := filepath.Abs(c.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("could not resolve config path: %w", err)
		}

		_, statErr := os.Stat(configPath)
		switch {
		case statErr == nil:
			repo := storageio.NewConfigYAMLRepository(os.DirFS("/"))
			cfg, err = repo.GetConfig(ctx, configPath[1:])
			if err != nil {
				return cfg, fmt.Errorf("could not load config: %w", err)
			}
			c.Logger.Debugf("Config loaded from %s", configPath)
		case c.ConfigSet:
			return cfg, fmt.Errorf("could not load config: %w", statErr)
		}
	}

	if c.ServerURL != "" {
		cfg.ServerURL = c.ServerURL
	}
	if c.RateLimit > 0 {
		cfg.RateLimit = c.RateLimit
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// NewAPI returns the job API selected by the global flags.
func (c RootCommand) NewAPI(cfg model.ClientConfig) (jobapi.API, error) {
	if c.APIType == APITypeFake {
		api, err := fake.NewAPI(fake.APIConfig{Logger: c.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create fake job API: %w", err)
		}
		return api, nil
	}

	api, err := rest.NewClient(rest.ClientConfig{
		BaseURL:   cfg.ServerURL,
		RateLimit: cfg.RateLimit,
		Logger:    c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create job API client: %w", err)
	}
	return api, nil
}

// NewHistory returns the job history repository, nil when the history is disabled.
// The returned close function is always safe to call.
func (c RootCommand) NewHistory(ctx context.Context) (storage.JobRepository, func(), error) {
	if c.NoHistory {
		return nil, func() {}, nil
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.HistoryDBPath,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create history repository: %w", err)
	}

	return repo, func() {
		if err := repo.Close(); err != nil {
			c.Logger.Warningf("could not close history repository: %s", err)
		}
	}, nil
}
