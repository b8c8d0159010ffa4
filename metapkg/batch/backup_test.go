package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metapkgops/metapkg/metapkg/manager"
)

func TestBackupSnapshot(t *testing.T) {
	npm := newFake("npm")
	npm.installed = map[string]manager.PackageRecord{
		"yo":               record("yo", "yo", "3.1.1"),
		"create-react-app": record("create-react-app", "create-react-app", "3.4.1"),
	}
	pip := newFake("pip3")
	pip.installed = map[string]manager.PackageRecord{
		"requests": record("requests", "requests", "2.23.0"),
	}

	runner, _ := testRunner()
	data, report, err := runner.Backup(context.Background(), []manager.Manager{npm, pip})
	require.NoError(t, err)
	assert.False(t, report.Failed())

	var doc map[string]map[string]string
	require.NoError(t, toml.Unmarshal(data, &doc))
	assert.Equal(t, map[string]map[string]string{
		"npm":  {"yo": "3.1.1", "create-react-app": "3.4.1"},
		"pip3": {"requests": "2.23.0"},
	}, doc)
}

func TestBackupDeterministic(t *testing.T) {
	build := func() []manager.Manager {
		npm := newFake("npm")
		npm.installed = map[string]manager.PackageRecord{
			"b": record("b", "b", "2.0"),
			"a": record("a", "a", "1.0"),
			"c": record("c", "c", "3.0"),
		}
		return []manager.Manager{npm}
	}

	runner, _ := testRunner()
	first, _, err := runner.Backup(context.Background(), build())
	require.NoError(t, err)
	second, _, err := runner.Backup(context.Background(), build())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBackupKeepsGoingPastFailures(t *testing.T) {
	broken := newFake("gem")
	broken.installedErr = errors.New("gem exploded")
	npm := newFake("npm")
	npm.installed = map[string]manager.PackageRecord{"yo": record("yo", "yo", "3.1.1")}

	runner, _ := testRunner()
	data, report, err := runner.Backup(context.Background(), []manager.Manager{broken, npm})
	require.NoError(t, err)
	assert.True(t, report.Failed())

	var doc map[string]map[string]string
	require.NoError(t, toml.Unmarshal(data, &doc))
	assert.Equal(t, map[string]string{"yo": "3.1.1"}, doc["npm"])
	assert.Empty(t, doc["gem"])
}

func TestRestoreReplaysPins(t *testing.T) {
	document := []byte("[npm]\nyo = \"3.1.1\"\n\n[pip3]\nrequests = \"2.23.0\"\n")
	npm := newFake("npm")
	pip := newFake("pip3")

	runner, exec := testRunner()
	report, err := runner.Restore(context.Background(), document, []manager.Manager{npm, pip})
	require.NoError(t, err)
	assert.False(t, report.Failed())

	require.Len(t, exec.calls, 2)
	assert.Equal(t,
		[]string{"/usr/bin/npm", "install", "yo@3.1.1"},
		report["npm"].UpgradeCLIs["yo"])
	assert.Equal(t,
		[]string{"/usr/bin/pip3", "install", "requests@2.23.0"},
		report["pip3"].UpgradeCLIs["requests"])
}

func TestRestoreSkipsUnknownSections(t *testing.T) {
	document := []byte("[cargo]\nripgrep = \"12.0.0\"\n\n[npm]\nyo = \"3.1.1\"\n")
	npm := newFake("npm")

	runner, exec := testRunner()
	report, err := runner.Restore(context.Background(), document, []manager.Manager{npm})
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Len(t, exec.calls, 1)
	assert.NotContains(t, report, "cargo")
}

func TestRestoreRejectsMalformedDocument(t *testing.T) {
	_, err := testRestore(t, []byte("not = [ valid"))
	assert.ErrorIs(t, err, ErrMalformedDocument)

	// Structurally wrong: values must be tables of strings.
	_, err = testRestore(t, []byte("npm = 42\n"))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func testRestore(t *testing.T, data []byte) (Report, error) {
	t.Helper()
	runner, _ := testRunner()
	return runner.Restore(context.Background(), data, []manager.Manager{newFake("npm")})
}

func TestRestoreDryRun(t *testing.T) {
	document := []byte("[npm]\nyo = \"3.1.1\"\n")
	npm := newFake("npm")

	runner, exec := testRunner()
	runner.DryRun = true
	report, err := runner.Restore(context.Background(), document, []manager.Manager{npm})
	require.NoError(t, err)

	assert.Empty(t, exec.calls)
	assert.Equal(t,
		[]string{"/usr/bin/npm", "install", "yo@3.1.1"},
		report["npm"].UpgradeCLIs["yo"])
}

func TestRestoreCapabilityMissing(t *testing.T) {
	document := []byte("[mas]\n\"497799835\" = \"11.4\"\n")
	mas := newFake("mas")
	mas.upgradeErr = errors.New("mas upgrade: " + manager.ErrCapabilityNotImplemented.Error())

	runner, exec := testRunner()
	report, err := runner.Restore(context.Background(), document, []manager.Manager{mas})
	require.NoError(t, err)

	assert.Empty(t, exec.calls)
	assert.True(t, report.Failed())
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	npm := newFake("npm")
	npm.installed = map[string]manager.PackageRecord{
		"yo": record("yo", "yo", "3.1.1"),
	}
	pip := newFake("pip3")
	pip.installed = map[string]manager.PackageRecord{
		"requests": record("requests", "requests", "2.23.0"),
	}
	selected := []manager.Manager{npm, pip}

	runner, exec := testRunner()
	data, _, err := runner.Backup(context.Background(), selected)
	require.NoError(t, err)

	report, err := runner.Restore(context.Background(), data, selected)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Len(t, exec.calls, 2)
}
