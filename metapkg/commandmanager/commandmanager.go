// Package commandmanager runs the external package-manager CLIs and captures
// their output. Every ecosystem adapter talks to its tool through the
// CommandManager interface, which is also the seam test fakes plug into.
package commandmanager

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single external-tool invocation when the config
// carries none. A hung ecosystem tool must never stall the whole batch.
const DefaultTimeout = 2 * time.Minute

// CommandConfig describes one invocation of an external tool.
type CommandConfig struct {
	Command string
	Args    []string
	Env     []string // appended to the inherited environment
	Timeout time.Duration
}

// CommandResult encapsulates the captured outcome of a command execution.
type CommandResult struct {
	Command   string
	STDOUT    string
	STDERR    string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// CommandManager provides a method to execute commands on the local system.
type CommandManager interface {
	Run(ctx context.Context, config CommandConfig) (CommandResult, error)
}

// LocalCommandManager executes commands as local child processes.
type LocalCommandManager struct {
	// Timeout applies when the CommandConfig carries none.
	Timeout time.Duration
}

// New returns a LocalCommandManager with the default invocation timeout.
func New() *LocalCommandManager {
	return &LocalCommandManager{Timeout: DefaultTimeout}
}

// Run executes the configured command, blocking until it exits, the context
// is done, or the timeout fires. The returned result is populated even on
// failure so callers can capture stderr into their error reports.
func (m *LocalCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = m.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Command:   config.Command,
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		ExitCode:  getExitCode(err),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.WithFields(log.Fields{
			"command":  config.Command,
			"duration": result.Duration,
		}).Debug("Command interrupted")
		return result, ctxErr
	}
	if err != nil {
		log.WithFields(log.Fields{
			"command":   config.Command,
			"exit_code": result.ExitCode,
			"stderr":    result.STDERR,
		}).Debug("Command failed")
		return result, err
	}

	log.WithFields(log.Fields{
		"command":  config.Command,
		"args":     config.Args,
		"duration": result.Duration,
	}).Debug("Command succeeded")
	return result, nil
}

func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode()
	}
	return -1
}
