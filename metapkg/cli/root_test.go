package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the tree against an empty selection so no real
// package manager is touched.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--manager", "no-such-manager"))
	err := root.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.ini")
}

func TestManagersCommand(t *testing.T) {
	out, err := runCommand(t, "managers", "--config", missingConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "AVAILABLE")
}

func TestManagersJSON(t *testing.T) {
	out, err := runCommand(t, "managers", "--config", missingConfig(t), "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "{}", strings.TrimSpace(out))
}

func TestManagersPlain(t *testing.T) {
	out, err := runCommand(t, "managers", "--config", missingConfig(t), "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.NotContains(t, out, "✓")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := runCommand(t, "managers", "--config", missingConfig(t), "-o", "xml")
	assert.ErrorContains(t, err, "output format")
}

func TestUnknownVerbosity(t *testing.T) {
	_, err := runCommand(t, "managers", "--config", missingConfig(t), "-v", "chatty")
	assert.ErrorContains(t, err, "verbosity")
}

func TestConfigSuppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metapkg.ini")
	require.NoError(t, os.WriteFile(path, []byte("[metapkg]\noutput_format = json\n"), 0o644))

	out, err := runCommand(t, "managers", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "{}", strings.TrimSpace(out))
}

func TestFlagBeatsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metapkg.ini")
	require.NoError(t, os.WriteFile(path, []byte("[metapkg]\noutput_format = json\n"), 0o644))

	out, err := runCommand(t, "managers", "--config", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
}

func TestSearchRequiresPattern(t *testing.T) {
	_, err := runCommand(t, "search", "--config", missingConfig(t))
	assert.Error(t, err)
}

func TestRestoreRequiresFile(t *testing.T) {
	_, err := runCommand(t, "restore", "--config", missingConfig(t))
	assert.Error(t, err)
}

func TestBackupWritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "snapshot.toml")
	_, err := runCommand(t, "backup", target, "--config", missingConfig(t))
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(data)), "empty selection snapshots nothing")
}
