package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads a dotenv file and sets the variables that are not already set
// in the process environment. A missing file is not an error.
// It returns the variables that have been set.
func Load(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("could not read env file %s: %w", path, err)
	}

	set := make(map[string]string, len(vars))
	for k, v := range vars {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return nil, fmt.Errorf("could not set %q env var: %w", k, err)
		}
		set[k] = v
	}

	return set, nil
}

// FileFromArgs returns the value of a path flag from raw command line args
// (`--flag value` or `--flag=value`), used before the flags are parsed.
func FileFromArgs(args []string, flag, def string) string {
	long := "--" + flag
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, long+"="); ok {
			return v
		}
		if a == long && i+1 < len(args) {
			return args[i+1]
		}
	}
	return def
}
