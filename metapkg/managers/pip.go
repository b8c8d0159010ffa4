package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Pip wraps a pip interpreter generation. pip2 and pip3 are separate
// catalogue entries sharing this implementation: same output formats,
// different binaries.
type Pip struct {
	manager.Base
}

var _ manager.Manager = (*Pip)(nil)

func newPip(runner commandmanager.CommandManager, id, name string, cliNames []string) *Pip {
	return &Pip{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          id,
			Name:        name,
			Platforms:   crossPlatform,
			CLINames:    cliNames,
			Requirement: "10.0.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

func NewPip2(runner commandmanager.CommandManager) *Pip {
	return newPip(runner, "pip2", "Python 2's pip", []string{"pip2"})
}

func NewPip3(runner commandmanager.CommandManager) *Pip {
	return newPip(runner, "pip3", "Python 3's pip", []string{"pip3"})
}

type pipListEntry struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	LatestVersion string `json:"latest_version"`
}

func (p *Pip) parseList(output string) ([]pipListEntry, error) {
	var entries []pipListEntry
	if err := json.Unmarshal([]byte(output), &entries); err != nil {
		return nil, fmt.Errorf("%s list: %w", p.ID(), err)
	}
	return entries, nil
}

func (p *Pip) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := p.Run(ctx, "list", "--format=json")
	if err != nil {
		return nil, err
	}
	entries, err := p.parseList(result.STDOUT)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord, len(entries))
	for _, entry := range entries {
		installed := version.Parse(entry.Version)
		packages[entry.Name] = manager.PackageRecord{
			ID:               entry.Name,
			Name:             entry.Name,
			InstalledVersion: &installed,
		}
	}
	return packages, nil
}

// Search parses the legacy `pip search` output: "name (1.0) - description".
// pip matches descriptions by default, so the non-extended mode narrows to
// name matches.
func (p *Pip) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := p.Run(ctx, "search", query)
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
		if strings.ContainsAny(id, " \t") {
			// Continuation line of a long description.
			continue
		}
		if !extended && !strings.Contains(strings.ToLower(id), strings.ToLower(query)) {
			continue
		}
		latest := version.Parse(line[open+1 : closing])
		packages[id] = manager.PackageRecord{
			ID:            id,
			Name:          id,
			LatestVersion: &latest,
		}
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

func (p *Pip) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := p.Run(ctx, "list", "--outdated", "--format=json")
	if err != nil {
		return nil, err
	}
	entries, err := p.parseList(result.STDOUT)
	if err != nil {
		return nil, err
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

// UpgradeCLI pins with pip's pkg==version requirement syntax when a version
// is requested.
func (p *Pip) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	target := id
	if ver != nil {
		target = id + "==" + ver.String()
	}
	return p.CLI("install", "--upgrade", target), nil
}
