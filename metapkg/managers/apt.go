package managers

import (
	"context"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Apt wraps Debian/Ubuntu's apt front-end.
type Apt struct {
	manager.Base
}

var _ manager.Manager = (*Apt)(nil)

func NewApt(runner commandmanager.CommandManager) *Apt {
	return &Apt{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "apt",
			Name:        "APT",
			Platforms:   []string{manager.PlatformLinux},
			CLINames:    []string{"apt"},
			Requirement: "1.0.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

// parseAptList handles `apt list` style lines:
// "package/now 1.2.3 amd64 [installed]". The header ("Listing...") and any
// line without the slash-separated suite are skipped.
func parseAptList(output string) map[string]manager.PackageRecord {
	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(output) {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "/") {
			continue
		}
		id := strings.SplitN(fields[0], "/", 2)[0]
		ver := version.Parse(fields[1])
		packages[id] = manager.PackageRecord{
			ID:               id,
			Name:             id,
			InstalledVersion: &ver,
		}
	}
	return packages
}

func (a *Apt) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := a.Run(ctx, "list", "--installed")
	if err != nil {
		return nil, err
	}
	return parseAptList(result.STDOUT), nil
}

// Search parses `apt search` output: entry lines "pkg/suite 1.2 amd64"
// followed by indented description lines. apt matches descriptions by
// default, so the non-extended mode narrows to name substring matches.
func (a *Apt) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := a.Run(ctx, "search", query)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range strings.Split(result.STDOUT, "\n") {
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "Sorting") || strings.HasPrefix(line, "Full Text Search") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "/") {
			continue
		}
		id := strings.SplitN(fields[0], "/", 2)[0]
		latest := version.Parse(fields[1])
		record := manager.PackageRecord{ID: id, Name: id, LatestVersion: &latest}
		if !extended && !strings.Contains(id, query) {
			continue
		}
		packages[id] = record
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

// Outdated parses `apt list --upgradable` lines:
// "pkg/suite 2.0 amd64 [upgradable from: 1.0]".
func (a *Apt) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := a.Run(ctx, "list", "--upgradable")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		if !strings.Contains(line, "upgradable from:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "/") {
			continue
		}
		id := strings.SplitN(fields[0], "/", 2)[0]
		latest := version.Parse(fields[1])
		record := manager.PackageRecord{ID: id, Name: id, LatestVersion: &latest}
		if idx := strings.Index(line, "upgradable from:"); idx >= 0 {
			raw := strings.Trim(strings.TrimSpace(line[idx+len("upgradable from:"):]), "]")
			installed := version.Parse(raw)
			record.InstalledVersion = &installed
		}
		packages[id] = record
	}
	return packages, nil
}

// UpgradeCLI pins the candidate version with apt's pkg=version syntax when
// one is requested.
func (a *Apt) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	target := id
	if ver != nil {
		target = id + "=" + ver.String()
	}
	return a.CLI("install", "--only-upgrade", "--yes", target), nil
}

func (a *Apt) UpgradeAllCLI() ([]string, error) {
	return a.CLI("upgrade", "--yes"), nil
}

func (a *Apt) Sync(ctx context.Context) error {
	_, err := a.Run(ctx, "update")
	return err
}

func (a *Apt) Cleanup(ctx context.Context) error {
	_, err := a.Run(ctx, "autoremove", "--yes")
	return err
}
