package apkjob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/apkjob/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "apkjob"
	}

	// go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("APKJOB_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("apkjob binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "APKJOB_INTEGRATION"
		envBinary     = "APKJOB_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Env is an isolated client environment: history database and fast polling config.
type Env struct {
	Config     Config
	ServerURL  string
	DBPath     string
	ConfigPath string
}

// NewEnv creates an isolated client environment pointing to serverURL.
func NewEnv(t *testing.T, config Config, serverURL string) Env {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "poll_interval: 20ms\noptions_delay: 1ms\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("could not write config: %s", err)
	}

	return Env{
		Config:     config,
		ServerURL:  serverURL,
		DBPath:     filepath.Join(dir, "history.db"),
		ConfigPath: cfgPath,
	}
}

// RunCmd runs an apkjob command with the environment global flags.
func (e Env) RunCmd(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	all := []string{
		"--server", e.ServerURL,
		"--config", e.ConfigPath,
		"--history-db", e.DBPath,
	}
	all = append(all, args...)

	return testutils.RunAPKJobArgs(ctx, nil, e.Config.Binary, all, true)
}

// RunSubmit submits an APK and prints the result in JSON format.
func (e Env) RunSubmit(ctx context.Context, apkPath string, extra ...string) (stdout, stderr []byte, err error) {
	args := append([]string{"submit", apkPath, "--format", "json"}, extra...)
	return e.RunCmd(ctx, args...)
}

// RunStatus gets a job status in JSON format.
func (e Env) RunStatus(ctx context.Context, jobID string) (stdout, stderr []byte, err error) {
	return e.RunCmd(ctx, "status", jobID, "--format", "json")
}

// RunDownload downloads a job result to the output path.
func (e Env) RunDownload(ctx context.Context, jobID, output string) (stdout, stderr []byte, err error) {
	return e.RunCmd(ctx, "download", jobID, "--output", output, "--quiet")
}

// RunHistory lists the job history in JSON format.
func (e Env) RunHistory(ctx context.Context) (stdout, stderr []byte, err error) {
	return e.RunCmd(ctx, "history", "--format", "json")
}
