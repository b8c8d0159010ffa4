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

// Brew wraps Homebrew formulae on macOS.
type Brew struct {
	manager.Base
}

var _ manager.Manager = (*Brew)(nil)

func NewBrew(runner commandmanager.CommandManager) *Brew {
	return &Brew{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "brew",
			Name:        "Homebrew Formulae",
			Platforms:   []string{manager.PlatformMacOS},
			CLINames:    []string{"brew"},
			Requirement: "1.7.4",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

// Installed parses `brew list --versions` lines of the form
// "name 1.2.3 1.2.4"; the last listed version is the active one.
func (b *Brew) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := b.Run(ctx, "list", "--versions")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		installed := version.Parse(fields[len(fields)-1])
		packages[fields[0]] = manager.PackageRecord{
			ID:               fields[0],
			Name:             fields[0],
			InstalledVersion: &installed,
		}
	}
	return packages, nil
}

// Search parses `brew search` output: plain formula names, or "name: desc"
// pairs when descriptions are requested for extended matching.
func (b *Brew) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	args := []string{"search"}
	if extended {
		args = append(args, "--desc")
	}
	args = append(args, query)

	result, err := b.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		if strings.HasPrefix(line, "==>") {
			continue
		}
		name := line
		if idx := strings.Index(line, ":"); idx > 0 {
			name = strings.TrimSpace(line[:idx])
		}
		packages[name] = manager.PackageRecord{ID: name, Name: name}
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

type brewOutdatedEntry struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

// Outdated parses `brew outdated --json=v1`.
func (b *Brew) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := b.Run(ctx, "outdated", "--json=v1")
	if err != nil {
		return nil, err
	}

	var entries []brewOutdatedEntry
	if err := json.Unmarshal([]byte(result.STDOUT), &entries); err != nil {
		return nil, fmt.Errorf("%s outdated: %w", b.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(entries))
	for _, entry := range entries {
		record := manager.PackageRecord{ID: entry.Name, Name: entry.Name}
		if len(entry.InstalledVersions) > 0 {
			installed := version.Parse(entry.InstalledVersions[len(entry.InstalledVersions)-1])
			record.InstalledVersion = &installed
		}
		latest := version.Parse(entry.CurrentVersion)
		record.LatestVersion = &latest
		packages[entry.Name] = record
	}
	return packages, nil
}

// UpgradeCLI ignores the version pin: Homebrew always upgrades a formula to
// its current definition.
func (b *Brew) UpgradeCLI(id string, _ *version.Token) ([]string, error) {
	return b.CLI("upgrade", id), nil
}

func (b *Brew) UpgradeAllCLI() ([]string, error) {
	return b.CLI("upgrade"), nil
}

func (b *Brew) Sync(ctx context.Context) error {
	_, err := b.Run(ctx, "update")
	return err
}

func (b *Brew) Cleanup(ctx context.Context) error {
	_, err := b.Run(ctx, "cleanup")
	return err
}

// Cask wraps Homebrew casks: the same brew binary driven through its "cask"
// sub-surface via the global args.
type Cask struct {
	Brew
}

var _ manager.Manager = (*Cask)(nil)

func NewCask(runner commandmanager.CommandManager) *Cask {
	return &Cask{Brew: Brew{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "cask",
			Name:        "Homebrew Cask",
			Platforms:   []string{manager.PlatformMacOS},
			CLINames:    []string{"brew"},
			Requirement: "1.7.4",
			VersionArgs: []string{"--version"},
			GlobalArgs:  []string{"cask"},
		},
		Runner: runner,
	}}}
}

// Outdated parses `brew cask outdated --verbose` lines of the form
// "name (1.2.3) != 2.0.1".
func (c *Cask) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := c.Run(ctx, "outdated", "--verbose")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "!=" {
			continue
		}
		installed := version.Parse(strings.Trim(fields[1], "()"))
		latest := version.Parse(fields[3])
		packages[fields[0]] = manager.PackageRecord{
			ID:               fields[0],
			Name:             fields[0],
			InstalledVersion: &installed,
			LatestVersion:    &latest,
		}
	}
	return packages, nil
}

// Linuxbrew is the Linux-hosted variant of Homebrew, formerly a separate
// project. Same binary and output formats, different platform and a
// dedicated install prefix on the search path.
type Linuxbrew struct {
	Brew
}

var _ manager.Manager = (*Linuxbrew)(nil)

func NewLinuxbrew(runner commandmanager.CommandManager) *Linuxbrew {
	return &Linuxbrew{Brew: Brew{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:            "linuxbrew",
			Name:          "Linuxbrew Formulae",
			Platforms:     []string{manager.PlatformLinux},
			CLINames:      []string{"brew"},
			CLISearchPath: []string{"/home/linuxbrew/.linuxbrew/bin"},
			Requirement:   "1.7.4",
			VersionArgs:   []string{"--version"},
		},
		Runner: runner,
	}}}
}
