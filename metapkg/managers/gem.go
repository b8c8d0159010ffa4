package managers

import (
	"context"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Gem wraps RubyGems.
type Gem struct {
	manager.Base
}

var _ manager.Manager = (*Gem)(nil)

func NewGem(runner commandmanager.CommandManager) *Gem {
	return &Gem{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "gem",
			Name:        "Ruby Gems",
			Platforms:   crossPlatform,
			CLINames:    []string{"gem"},
			Requirement: "2.5.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

// parseGemList handles "name (1.2.0, 1.1.0)" lines; the first version
// listed is the active one.
func parseGemList(output string) map[string]manager.PackageRecord {
	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(output) {
		open := strings.Index(line, "(")
		closing := strings.Index(line, ")")
		if open <= 0 || closing <= open {
			continue
		}
		id := strings.TrimSpace(line[:open])
		versions := strings.Split(line[open+1:closing], ",")
		installed := version.Parse(strings.TrimSpace(versions[0]))
		packages[id] = manager.PackageRecord{
			ID:               id,
			Name:             id,
			InstalledVersion: &installed,
		}
	}
	return packages
}

func (g *Gem) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := g.Run(ctx, "list")
	if err != nil {
		return nil, err
	}
	return parseGemList(result.STDOUT), nil
}

// Search queries the remote gem index. RubyGems matches names only, so the
// extended flag has no additional surface to widen into.
func (g *Gem) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := g.Run(ctx, "search", "--remote", query)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, record := range parseGemList(result.STDOUT) {
		record.LatestVersion = record.InstalledVersion
		record.InstalledVersion = nil
		packages[id] = record
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

// Outdated parses `gem outdated` lines: "name (1.0.0 < 2.0.0)".
func (g *Gem) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := g.Run(ctx, "outdated")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		open := strings.Index(line, "(")
		closing := strings.Index(line, ")")
		if open <= 0 || closing <= open {
			continue
		}
		id := strings.TrimSpace(line[:open])
		parts := strings.Split(line[open+1:closing], "<")
		if len(parts) != 2 {
			continue
		}
		installed := version.Parse(strings.TrimSpace(parts[0]))
		latest := version.Parse(strings.TrimSpace(parts[1]))
		packages[id] = manager.PackageRecord{
			ID:               id,
			Name:             id,
			InstalledVersion: &installed,
			LatestVersion:    &latest,
		}
	}
	return packages, nil
}

func (g *Gem) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	if ver != nil {
		return g.CLI("install", id, "--version", ver.String()), nil
	}
	return g.CLI("update", id), nil
}

func (g *Gem) UpgradeAllCLI() ([]string, error) {
	return g.CLI("update"), nil
}

func (g *Gem) Cleanup(ctx context.Context) error {
	_, err := g.Run(ctx, "cleanup")
	return err
}
