package managers

import (
	"context"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Flatpak wraps Flatpak applications (not runtimes). Tab-separated columns
// are requested explicitly so the parsing does not depend on terminal
// width heuristics.
type Flatpak struct {
	manager.Base
}

var _ manager.Manager = (*Flatpak)(nil)

func NewFlatpak(runner commandmanager.CommandManager) *Flatpak {
	return &Flatpak{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "flatpak",
			Name:        "Flatpak",
			Platforms:   []string{manager.PlatformLinux},
			CLINames:    []string{"flatpak"},
			Requirement: "1.2.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

// parseFlatpakColumns handles application\tname\tversion rows.
func parseFlatpakColumns(output string) map[string]manager.PackageRecord {
	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(output) {
		cols := strings.Split(line, "\t")
		if len(cols) < 2 {
			continue
		}
		record := manager.PackageRecord{ID: cols[0], Name: cols[1]}
		if len(cols) > 2 && cols[2] != "" {
			ver := version.Parse(cols[2])
			record.InstalledVersion = &ver
		}
		packages[cols[0]] = record
	}
	return packages
}

func (f *Flatpak) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := f.Run(ctx, "list", "--app", "--columns=application,name,version")
	if err != nil {
		return nil, err
	}
	return parseFlatpakColumns(result.STDOUT), nil
}

func (f *Flatpak) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := f.Run(ctx, "search", "--columns=application,name,version", query)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, record := range parseFlatpakColumns(result.STDOUT) {
		record.LatestVersion = record.InstalledVersion
		record.InstalledVersion = nil
		if !extended && !strings.Contains(strings.ToLower(id), strings.ToLower(query)) &&
			!strings.Contains(strings.ToLower(record.Name), strings.ToLower(query)) {
			// flatpak search matches descriptions too; narrow to names.
			continue
		}
		packages[id] = record
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

// Outdated lists pending updates from the configured remotes. The remote
// listing carries only the candidate version; the installed side is filled
// from the local listing when present.
func (f *Flatpak) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	installed, err := f.Installed(ctx)
	if err != nil {
		return nil, err
	}

	result, err := f.Run(ctx, "remote-ls", "--updates", "--app", "--columns=application,name,version")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, record := range parseFlatpakColumns(result.STDOUT) {
		record.LatestVersion = record.InstalledVersion
		record.InstalledVersion = nil
		if local, ok := installed[id]; ok {
			record.InstalledVersion = local.InstalledVersion
		}
		packages[id] = record
	}
	return packages, nil
}

func (f *Flatpak) UpgradeCLI(id string, _ *version.Token) ([]string, error) {
	return f.CLI("update", "--noninteractive", id), nil
}

func (f *Flatpak) UpgradeAllCLI() ([]string, error) {
	return f.CLI("update", "--noninteractive"), nil
}

func (f *Flatpak) Cleanup(ctx context.Context) error {
	_, err := f.Run(ctx, "uninstall", "--unused", "--noninteractive")
	return err
}
