package managers

import (
	"context"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Yarn wraps Yarn's global install surface. Yarn has no global outdated
// listing, so the Outdated capability stays at the base default.
type Yarn struct {
	manager.Base
}

var _ manager.Manager = (*Yarn)(nil)

func NewYarn(runner commandmanager.CommandManager) *Yarn {
	return &Yarn{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "yarn",
			Name:        "Yarn",
			Platforms:   crossPlatform,
			CLINames:    []string{"yarn"},
			Requirement: "1.21.0",
			VersionArgs: []string{"--version"},
			GlobalArgs:  []string{"global"},
		},
		Runner: runner,
	}}
}

// Installed parses `yarn global list` info lines of the form
// `info "create-react-app@3.4.1" has binaries:`.
func (y *Yarn) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := y.Run(ctx, "list")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		if !strings.HasPrefix(line, "info \"") {
			continue
		}
		start := strings.Index(line, "\"")
		end := strings.LastIndex(line, "\"")
		if end <= start {
			continue
		}
		quoted := line[start+1 : end]
		at := strings.LastIndex(quoted, "@")
		if at <= 0 {
			continue
		}
		id := quoted[:at]
		installed := version.Parse(quoted[at+1:])
		packages[id] = manager.PackageRecord{
			ID:               id,
			Name:             id,
			InstalledVersion: &installed,
		}
	}
	return packages, nil
}

// Search drives npm's registry through yarn's info output: `yarn info` is
// per-package, so search falls back to name matching over `yarn global
// list` plus the query itself when pinned exactly. Yarn's own `search` was
// removed upstream; the practical surface is npm's registry, and extended
// matching has nothing extra to offer here.
func (y *Yarn) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := y.Run(ctx, "info", query, "version", "--silent")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	raw := strings.TrimSpace(result.STDOUT)
	if raw != "" {
		latest := version.Parse(raw)
		packages[query] = manager.PackageRecord{
			ID:            query,
			Name:          query,
			LatestVersion: &latest,
		}
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

func (y *Yarn) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	target := id
	if ver != nil {
		target = id + "@" + ver.String()
	}
	return y.CLI("upgrade", target), nil
}

func (y *Yarn) UpgradeAllCLI() ([]string, error) {
	return y.CLI("upgrade"), nil
}

func (y *Yarn) Cleanup(ctx context.Context) error {
	_, err := y.Run(ctx, "cache", "clean")
	return err
}
