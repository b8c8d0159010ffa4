package managers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Apm wraps Atom's package manager.
type Apm struct {
	manager.Base
}

var _ manager.Manager = (*Apm)(nil)

func NewApm(runner commandmanager.CommandManager) *Apm {
	return &Apm{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "apm",
			Name:        "Atom's apm",
			Platforms:   crossPlatform,
			CLINames:    []string{"apm"},
			Requirement: "1.0.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

type apmEntry struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	LatestVersion string `json:"latestVersion"`
}

func (a *Apm) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := a.Run(ctx, "list", "--json")
	if err != nil {
		return nil, err
	}

	var payload map[string][]apmEntry
	if err := json.Unmarshal([]byte(result.STDOUT), &payload); err != nil {
		return nil, fmt.Errorf("%s installed: %w", a.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord)
	for _, entries := range payload {
		for _, entry := range entries {
			installed := version.Parse(entry.Version)
			packages[entry.Name] = manager.PackageRecord{
				ID:               entry.Name,
				Name:             entry.Name,
				InstalledVersion: &installed,
			}
		}
	}
	return packages, nil
}

func (a *Apm) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := a.Run(ctx, "search", "--json", query)
	if err != nil {
		return nil, err
	}

	var entries []apmEntry
	if err := json.Unmarshal([]byte(result.STDOUT), &entries); err != nil {
		return nil, fmt.Errorf("%s search: %w", a.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(entries))
	for _, entry := range entries {
		latest := version.Parse(entry.Version)
		packages[entry.Name] = manager.PackageRecord{
			ID:            entry.Name,
			Name:          entry.Name,
			LatestVersion: &latest,
		}
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

func (a *Apm) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := a.Run(ctx, "outdated", "--compatible", "--json")
	if err != nil {
		return nil, err
	}

	var entries []apmEntry
	if err := json.Unmarshal([]byte(result.STDOUT), &entries); err != nil {
		return nil, fmt.Errorf("%s outdated: %w", a.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(entries))
	for _, entry := range entries {
		installed := version.Parse(entry.Version)
		latest := version.Parse(entry.LatestVersion)
		packages[entry.Name] = manager.PackageRecord{
			ID:               entry.Name,
			Name:             entry.Name,
			InstalledVersion: &installed,
			LatestVersion:    &latest,
		}
	}
	return packages, nil
}

func (a *Apm) UpgradeCLI(id string, _ *version.Token) ([]string, error) {
	return a.CLI("update", "--no-confirm", id), nil
}

func (a *Apm) UpgradeAllCLI() ([]string, error) {
	return a.CLI("update", "--no-confirm"), nil
}
