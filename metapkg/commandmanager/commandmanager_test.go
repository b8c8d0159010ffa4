package commandmanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	manager := New()

	result, err := manager.Run(context.Background(), CommandConfig{
		Command: "echo",
		Args:    []string{"hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello\n", result.STDOUT)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "echo", result.Command)
	assert.False(t, result.Timestamp.IsZero())
}

func TestRunReportsExitCode(t *testing.T) {
	manager := New()

	result, err := manager.Run(context.Background(), CommandConfig{
		Command: "false",
	})

	require.Error(t, err)
	assert.NotEqual(t, 0, result.ExitCode)
}

func TestRunMissingCommand(t *testing.T) {
	manager := New()

	result, err := manager.Run(context.Background(), CommandConfig{
		Command: "definitely-not-a-real-command-9f2c",
	})

	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

func TestRunTimeout(t *testing.T) {
	manager := New()

	start := time.Now()
	_, err := manager.Run(context.Background(), CommandConfig{
		Command: "sleep",
		Args:    []string{"10"},
		Timeout: 50 * time.Millisecond,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunHonorsCancelledContext(t *testing.T) {
	manager := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := manager.Run(ctx, CommandConfig{Command: "echo", Args: []string{"hi"}})
	require.Error(t, err)
}
