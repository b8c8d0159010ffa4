package managers

import (
	"context"
	"regexp"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Mas wraps the Mac App Store CLI. Package ids are numeric App Store
// identifiers; display names are the app names.
type Mas struct {
	manager.Base
}

var _ manager.Manager = (*Mas)(nil)

func NewMas(runner commandmanager.CommandManager) *Mas {
	return &Mas{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "mas",
			Name:        "Mac AppStore",
			Platforms:   []string{manager.PlatformMacOS},
			CLINames:    []string{"mas"},
			Requirement: "1.6.1",
			VersionArgs: []string{"version"},
		},
		Runner: runner,
	}}
}

// masLine matches "497799835 Xcode (11.4)" with optional surrounding
// whitespace from the search listing.
var masLine = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+\(([^)]*)\)\s*$`)

func parseMasList(output string) map[string]manager.PackageRecord {
	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(output) {
		match := masLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		ver := version.Parse(match[3])
		packages[match[1]] = manager.PackageRecord{
			ID:               match[1],
			Name:             strings.TrimSpace(match[2]),
			InstalledVersion: &ver,
		}
	}
	return packages
}

func (m *Mas) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := m.Run(ctx, "list")
	if err != nil {
		return nil, err
	}
	return parseMasList(result.STDOUT), nil
}

// Search queries the App Store. The store API matches names only; the
// extended flag has nothing extra to reach.
func (m *Mas) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := m.Run(ctx, "search", query)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, record := range parseMasList(result.STDOUT) {
		record.LatestVersion = record.InstalledVersion
		record.InstalledVersion = nil
		packages[id] = record
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

// Outdated parses `mas outdated` lines: "497799835 Xcode (11.3 -> 11.4)".
// Older mas releases print only the candidate version; the installed side
// is then left absent.
func (m *Mas) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := m.Run(ctx, "outdated")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		match := masLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		record := manager.PackageRecord{
			ID:   match[1],
			Name: strings.TrimSpace(match[2]),
		}
		if before, after, found := strings.Cut(match[3], "->"); found {
			installed := version.Parse(strings.TrimSpace(before))
			latest := version.Parse(strings.TrimSpace(after))
			record.InstalledVersion = &installed
			record.LatestVersion = &latest
		} else {
			latest := version.Parse(match[3])
			record.LatestVersion = &latest
		}
		packages[match[1]] = record
	}
	return packages, nil
}

func (m *Mas) UpgradeCLI(id string, _ *version.Token) ([]string, error) {
	return m.CLI("upgrade", id), nil
}

func (m *Mas) UpgradeAllCLI() ([]string, error) {
	return m.CLI("upgrade"), nil
}
