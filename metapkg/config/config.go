// Package config loads the optional defaults file. Flags always win; the
// file only supplies defaults for options the invocation left unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Config carries the file-supplied defaults.
type Config struct {
	// Managers and Excludes narrow the default selection.
	Managers []string
	Excludes []string

	// OutputFormat is "table", "plain" or "json".
	OutputFormat string

	// CLIFormat, when set, makes outdated render upgrade invocations in
	// this format instead of the package listing: "plain", "fragments" or
	// "bitbar".
	CLIFormat string

	// Timeout bounds each manager's share of a batch.
	Timeout time.Duration

	// Verbosity is a logrus level name.
	Verbosity string

	// DryRun plans mutating operations without running them.
	DryRun bool
}

// Default returns the built-in defaults used when no file overrides them.
func Default() *Config {
	return &Config{
		OutputFormat: "table",
		Timeout:      2 * time.Minute,
		Verbosity:    "warning",
	}
}

// DefaultPath locates the defaults file under the user's configuration
// directory.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "metapkg", "metapkg.ini"), nil
}

// Load reads the file at path over the built-in defaults. A missing file is
// not an error; a present but unreadable or unparsable one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Debug("No defaults file")
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load defaults %s: %w", path, err)
	}

	section := file.Section("metapkg")
	if key := section.Key("managers"); key.String() != "" {
		cfg.Managers = key.Strings(",")
	}
	if key := section.Key("excludes"); key.String() != "" {
		cfg.Excludes = key.Strings(",")
	}
	if key := section.Key("output_format"); key.String() != "" {
		cfg.OutputFormat = key.String()
	}
	if key := section.Key("cli_format"); key.String() != "" {
		cfg.CLIFormat = key.String()
	}
	if key := section.Key("timeout"); key.String() != "" {
		timeout, err := time.ParseDuration(key.String())
		if err != nil {
			return nil, fmt.Errorf("defaults %s: timeout: %w", path, err)
		}
		cfg.Timeout = timeout
	}
	if key := section.Key("verbosity"); key.String() != "" {
		cfg.Verbosity = key.String()
	}
	if key := section.Key("dry_run"); key.String() != "" {
		dryRun, err := key.Bool()
		if err != nil {
			return nil, fmt.Errorf("defaults %s: dry_run: %w", path, err)
		}
		cfg.DryRun = dryRun
	}

	log.WithField("path", path).Debug("Defaults loaded")
	return cfg, nil
}
