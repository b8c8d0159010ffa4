package managers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Npm wraps Node's npm, operating on the global install prefix.
type Npm struct {
	manager.Base
}

var _ manager.Manager = (*Npm)(nil)

func NewNpm(runner commandmanager.CommandManager) *Npm {
	return &Npm{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "npm",
			Name:        "Node's npm",
			Platforms:   crossPlatform,
			CLINames:    []string{"npm"},
			Requirement: "4.0.0",
			VersionArgs: []string{"--version"},
			GlobalArgs:  []string{"--global"},
		},
		Runner: runner,
	}}
}

func (n *Npm) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := n.Run(ctx, "ls", "--json", "--depth=0")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(result.STDOUT), &payload); err != nil {
		return nil, fmt.Errorf("%s installed: %w", n.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(payload.Dependencies))
	for name, dep := range payload.Dependencies {
		installed := version.Parse(dep.Version)
		packages[name] = manager.PackageRecord{
			ID:               name,
			Name:             name,
			InstalledVersion: &installed,
		}
	}
	return packages, nil
}

func (n *Npm) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	args := []string{"search", "--json"}
	if !extended {
		args = append(args, "--no-description")
	}
	args = append(args, query)

	result, err := n.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(result.STDOUT), &entries); err != nil {
		return nil, fmt.Errorf("%s search: %w", n.ID(), err)
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

func (n *Npm) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := n.Run(ctx, "outdated", "--json")
	if err != nil {
		// npm exits nonzero when outdated packages exist; fall back to the
		// captured output when it parses.
		var invErr *manager.InvocationError
		if !errors.As(err, &invErr) || invErr.Result.STDOUT == "" {
			return nil, err
		}
		result = invErr.Result
	}

	var entries map[string]struct {
		Current string `json:"current"`
		Latest  string `json:"latest"`
	}
	if err := json.Unmarshal([]byte(result.STDOUT), &entries); err != nil {
		return nil, fmt.Errorf("%s outdated: %w", n.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(entries))
	for name, entry := range entries {
		installed := version.Parse(entry.Current)
		latest := version.Parse(entry.Latest)
		packages[name] = manager.PackageRecord{
			ID:               name,
			Name:             name,
			InstalledVersion: &installed,
			LatestVersion:    &latest,
		}
	}
	return packages, nil
}

func (n *Npm) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	target := id + "@latest"
	if ver != nil {
		target = id + "@" + ver.String()
	}
	return n.CLI("install", target), nil
}

func (n *Npm) UpgradeAllCLI() ([]string, error) {
	return n.CLI("update"), nil
}

func (n *Npm) Cleanup(ctx context.Context) error {
	_, err := n.Run(ctx, "cache", "clean", "--force")
	return err
}
