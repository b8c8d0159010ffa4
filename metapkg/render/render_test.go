package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metapkgops/metapkg/metapkg/batch"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

func init() {
	color.NoColor = true
}

func sampleReport() batch.Report {
	installed := version.Parse("3.1.0")
	latest := version.Parse("3.1.1")
	return batch.Report{
		"npm": &batch.ManagerReport{
			ID: "npm", Name: "NPM",
			Supported: true, Executable: true, Fresh: true, Available: true,
			CLIPath: "/usr/bin/npm",
			Packages: []manager.PackageRecord{{
				ID: "yo", Name: "yo",
				InstalledVersion: &installed,
				LatestVersion:    &latest,
			}},
			UpgradeCLIs: map[string][]string{
				"yo": {"/usr/bin/npm", "--global", "install", "yo@3.1.1"},
			},
			UpgradeAllCLI: []string{"/usr/bin/npm", "--global", "update"},
		},
		"gem": &batch.ManagerReport{
			ID: "gem", Name: "Ruby Gems",
			Supported: true,
			Errors:    []string{"gem exploded"},
		},
	}
}

// upgradeAllOnlyReport covers managers whose one-shot upgrade is the only
// invocation, as apt reports.
func upgradeAllOnlyReport() batch.Report {
	return batch.Report{
		"apt": &batch.ManagerReport{
			ID: "apt", Name: "APT",
			Packages: []manager.PackageRecord{{ID: "bash", Name: "bash"}},
			UpgradeAllCLI: []string{"/usr/bin/apt", "upgrade", "--yes"},
		},
	}
}

func TestJSONStable(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, JSON(&first, sampleReport()))
	require.NoError(t, JSON(&second, sampleReport()))
	assert.Equal(t, first.String(), second.String())

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(first.Bytes(), &decoded))
	assert.Contains(t, decoded, "npm")
	assert.Contains(t, decoded, "gem")
}

func TestManagersTable(t *testing.T) {
	var buf bytes.Buffer
	ManagersTable(&buf, sampleReport(), true)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "/usr/bin/npm")
	assert.Contains(t, out, "gem exploded")

	// gem sorts before npm.
	assert.Less(t, strings.Index(out, "gem"), strings.Index(out, "npm"))
}

func TestManagersTablePlain(t *testing.T) {
	var buf bytes.Buffer
	ManagersTable(&buf, sampleReport(), false)

	out := buf.String()
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
	assert.NotContains(t, out, "✓")
	assert.NotContains(t, out, "✗")
}

func TestPackagesTable(t *testing.T) {
	var buf bytes.Buffer
	PackagesTable(&buf, sampleReport(), true)

	out := buf.String()
	assert.Contains(t, out, "yo")
	assert.Contains(t, out, "3.1.0")
	assert.Contains(t, out, "3.1.1")
}

func TestStatusTable(t *testing.T) {
	var buf bytes.Buffer
	StatusTable(&buf, sampleReport(), true)

	out := buf.String()
	assert.Contains(t, out, "npm")
	assert.Contains(t, out, "gem exploded")
}

func TestStatusTablePlain(t *testing.T) {
	var buf bytes.Buffer
	StatusTable(&buf, sampleReport(), false)

	out := buf.String()
	assert.Contains(t, out, "ok")
	assert.NotContains(t, out, "✓")
}

func TestCLIFormatPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CLIFormat(&buf, sampleReport(), CLIPlain))
	assert.Equal(t,
		"/usr/bin/npm --global install yo@3.1.1\n/usr/bin/npm --global update\n",
		buf.String())
}

func TestCLIFormatPlainUpgradeAllOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CLIFormat(&buf, upgradeAllOnlyReport(), CLIPlain))
	assert.Equal(t, "/usr/bin/apt upgrade --yes\n", buf.String())
}

func TestCLIFormatFragments(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CLIFormat(&buf, sampleReport(), CLIFragments))
	assert.Equal(t,
		"/usr/bin/npm\n--global\ninstall\nyo@3.1.1\n\n/usr/bin/npm\n--global\nupdate\n\n",
		buf.String())
}

func TestCLIFormatBitBar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CLIFormat(&buf, sampleReport(), CLIBitBar))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "↑1 | dropdown=false\n---\n"), out)
	assert.Contains(t, out, "NPM (1)")
	assert.Contains(t, out, "yo | bash=/usr/bin/npm param1=--global param2=install param3=yo@3.1.1 terminal=false refresh=true")
	assert.Contains(t, out, "Upgrade all | bash=/usr/bin/npm param1=--global param2=update terminal=false refresh=true")
}

func TestCLIFormatUnknown(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, CLIFormat(&buf, sampleReport(), "xml"))
	assert.Error(t, JSONCLIFormat(&buf, sampleReport(), "xml"))
}

func TestJSONCLIFormatShapesFields(t *testing.T) {
	type entry struct {
		UpgradeCLIs   map[string]json.RawMessage `json:"upgrade_clis"`
		UpgradeAllCLI json.RawMessage            `json:"upgrade_all_cli"`
	}
	decode := func(t *testing.T, mode string) entry {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, JSONCLIFormat(&buf, sampleReport(), mode))
		var doc map[string]entry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		return doc["npm"]
	}

	plain := decode(t, CLIPlain)
	var joined string
	require.NoError(t, json.Unmarshal(plain.UpgradeAllCLI, &joined))
	assert.Equal(t, "/usr/bin/npm --global update", joined)
	require.NoError(t, json.Unmarshal(plain.UpgradeCLIs["yo"], &joined))
	assert.Equal(t, "/usr/bin/npm --global install yo@3.1.1", joined)

	fragments := decode(t, CLIFragments)
	var argv []string
	require.NoError(t, json.Unmarshal(fragments.UpgradeAllCLI, &argv))
	assert.Equal(t, []string{"/usr/bin/npm", "--global", "update"}, argv)

	bitbar := decode(t, CLIBitBar)
	var annotated string
	require.NoError(t, json.Unmarshal(bitbar.UpgradeAllCLI, &annotated))
	assert.Equal(t, "bash=/usr/bin/npm param1=--global param2=update", annotated)
}
