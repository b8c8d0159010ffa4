package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// fakeRunner replays canned results instead of executing anything.
type fakeRunner struct {
	stdout string
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	f.calls++
	return commandmanager.CommandResult{
		Command: config.Command,
		STDOUT:  f.stdout,
	}, f.err
}

func writeFakeCLI(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func newTestBase(t *testing.T, dir string, runner commandmanager.CommandManager) *Base {
	t.Helper()
	return &Base{
		Descriptor: Descriptor{
			ID:            "fakemgr",
			Name:          "Fake Manager",
			Platforms:     []string{runtime.GOOS},
			CLINames:      []string{"fakemgr"},
			CLISearchPath: []string{dir},
			Requirement:   "1.0",
			VersionArgs:   []string{"--version"},
		},
		Runner: runner,
	}
}

func TestCLIPathResolution(t *testing.T) {
	dir := t.TempDir()
	expected := writeFakeCLI(t, dir, "fakemgr")

	base := newTestBase(t, dir, &fakeRunner{stdout: "fakemgr 1.2.3"})
	assert.Equal(t, expected, base.CLIPath())
	assert.True(t, base.Executable())
}

func TestCLIPathMemoized(t *testing.T) {
	dir := t.TempDir()
	path := writeFakeCLI(t, dir, "fakemgr")

	base := newTestBase(t, dir, &fakeRunner{})
	require.Equal(t, path, base.CLIPath())

	// Removing the file does not invalidate the memoized resolution.
	require.NoError(t, os.Remove(path))
	assert.Equal(t, path, base.CLIPath())
}

func TestCLIPathAbsent(t *testing.T) {
	base := newTestBase(t, t.TempDir(), &fakeRunner{})
	assert.Equal(t, "", base.CLIPath())
	assert.False(t, base.Executable())
	assert.False(t, base.Available())
}

func TestCLIPathKeepsSymlinkIdentity(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	realDir := t.TempDir()
	target := writeFakeCLI(t, realDir, "fakemgr-real")

	linkDir := t.TempDir()
	link := filepath.Join(linkDir, "fakemgr")
	require.NoError(t, os.Symlink(target, link))

	base := newTestBase(t, linkDir, &fakeRunner{stdout: "1.0"})
	assert.Equal(t, link, base.CLIPath())
	assert.True(t, base.Executable())
}

func TestCLIPathIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "fakemgr"), 0o755))

	base := newTestBase(t, dir, &fakeRunner{})
	assert.Equal(t, "", base.CLIPath())
}

func TestCLISearchPathDeduplicated(t *testing.T) {
	base := &Base{Descriptor: Descriptor{
		CLISearchPath: []string{"/opt/a", "/opt/b", "/opt/a"},
	}}
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, base.CLISearchPath())
}

func TestVersionMemoized(t *testing.T) {
	dir := t.TempDir()
	writeFakeCLI(t, dir, "fakemgr")
	runner := &fakeRunner{stdout: "Fake Manager 2.4.1\n"}

	base := newTestBase(t, dir, runner)
	first := base.Version()
	require.NotNil(t, first)
	assert.Equal(t, "2.4.1", first.String())

	second := base.Version()
	assert.Same(t, first, second)
	assert.Equal(t, 1, runner.calls)
}

func TestVersionAbsentOnInvocationError(t *testing.T) {
	dir := t.TempDir()
	writeFakeCLI(t, dir, "fakemgr")
	runner := &fakeRunner{err: errors.New("boom")}

	base := newTestBase(t, dir, runner)
	assert.Nil(t, base.Version())
	// Permissive default: no version still counts as fresh.
	assert.True(t, base.Fresh())
	assert.True(t, base.Available())
}

func TestVersionAbsentOnUnparsableOutput(t *testing.T) {
	dir := t.TempDir()
	writeFakeCLI(t, dir, "fakemgr")

	base := newTestBase(t, dir, &fakeRunner{stdout: "no digits at all"})
	assert.Nil(t, base.Version())
	assert.True(t, base.Fresh())
}

func TestFreshnessAgainstRequirement(t *testing.T) {
	tests := []struct {
		stdout string
		fresh  bool
	}{
		{"fakemgr 0.9", false},
		{"fakemgr 1.0", true},
		{"fakemgr 1.0.1", true},
		{"fakemgr 12.0", true},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		writeFakeCLI(t, dir, "fakemgr")
		base := newTestBase(t, dir, &fakeRunner{stdout: tt.stdout})
		assert.Equal(t, tt.fresh, base.Fresh(), "output %q", tt.stdout)
	}
}

func TestAvailabilityLattice(t *testing.T) {
	dir := t.TempDir()
	writeFakeCLI(t, dir, "fakemgr")

	// Unsupported platform always forces Available to false, regardless of
	// the executable and freshness checks.
	base := newTestBase(t, dir, &fakeRunner{stdout: "9.9"})
	base.OS = "plan9"
	assert.False(t, base.Supported())
	assert.False(t, base.Available())

	supported := newTestBase(t, dir, &fakeRunner{stdout: "9.9"})
	assert.True(t, supported.Supported())
	assert.True(t, supported.Executable())
	assert.True(t, supported.Fresh())
	assert.True(t, supported.Available())
}

func TestRunRequiresAvailable(t *testing.T) {
	base := newTestBase(t, t.TempDir(), &fakeRunner{})

	_, err := base.Run(context.Background(), "list")
	assert.ErrorIs(t, err, ErrManagerUnavailable)
}

func TestRunWrapsInvocationError(t *testing.T) {
	dir := t.TempDir()
	writeFakeCLI(t, dir, "fakemgr")
	runner := &fakeRunner{err: errors.New("exit status 1")}

	base := newTestBase(t, dir, runner)
	// Force the version probe to be skipped so Available stays true.
	base.Descriptor.VersionArgs = nil

	_, err := base.Run(context.Background(), "list")
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "fakemgr", invErr.ManagerID)
}

func TestOptionalCapabilityDefaults(t *testing.T) {
	base := newTestBase(t, t.TempDir(), &fakeRunner{})

	_, err := base.Outdated(context.Background())
	assert.ErrorIs(t, err, ErrCapabilityNotImplemented)

	_, err = base.UpgradeCLI("pkg", nil)
	assert.ErrorIs(t, err, ErrCapabilityNotImplemented)

	_, err = base.UpgradeAllCLI()
	assert.ErrorIs(t, err, ErrCapabilityNotImplemented)

	// Sync and Cleanup silently no-op instead.
	assert.NoError(t, base.Sync(context.Background()))
	assert.NoError(t, base.Cleanup(context.Background()))
}

func TestGetVersionNotMemoized(t *testing.T) {
	dir := t.TempDir()
	writeFakeCLI(t, dir, "fakemgr")
	runner := &fakeRunner{stdout: "1.2.3"}

	base := newTestBase(t, dir, runner)
	_, err := base.GetVersion(context.Background())
	require.NoError(t, err)
	_, err = base.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestFilterExact(t *testing.T) {
	records := map[string]PackageRecord{
		"foo":     {ID: "foo", Name: "Foo"},
		"foobar":  {ID: "foobar", Name: "Foo Bar"},
		"renamed": {ID: "renamed", Name: "foo"},
	}
	filtered := FilterExact(records, "foo")
	assert.Len(t, filtered, 2)
	assert.Contains(t, filtered, "foo")
	assert.Contains(t, filtered, "renamed")
}

func TestRequirementTokenized(t *testing.T) {
	base := &Base{Descriptor: Descriptor{Requirement: "1.7.4"}}
	assert.True(t, base.Requirement().Equal(version.Parse("1.7.4")))
}
