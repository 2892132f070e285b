package conventions

import (
	"path/filepath"
	"strings"

	"github.com/slok/apkjob/internal/model"
)

const (
	// DefaultDataDir is the default apkjob data directory name (relative to home).
	DefaultDataDir = ".apkjob"
	// HistoryDBFile is the job history SQLite database filename.
	HistoryDBFile = "history.db"
	// ConfigFile is the optional client configuration filename.
	ConfigFile = "config.yaml"
	// EnvFile is the dotenv file loaded before parsing the flags.
	EnvFile = ".env"
)

// DataDir returns the apkjob data directory inside a home directory.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// HistoryDBPath returns the default history database path.
func HistoryDBPath(home string) string {
	return filepath.Join(DataDir(home), HistoryDBFile)
}

// ConfigPath returns the default configuration file path.
func ConfigPath(home string) string {
	return filepath.Join(DataDir(home), ConfigFile)
}

// DownloadFilename returns a safe local filename for a downloaded result.
// Only the base name of the server given name is used, falling back to the
// default output name.
func DownloadFilename(serverName string) string {
	name := filepath.Base(strings.ReplaceAll(serverName, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return model.DefaultOutputFilename
	}
	return name
}
