package managers

import (
	"context"
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// Opkg wraps the OpenWrt/embedded opkg tool. opkg upgrades packages only
// one by one, so UpgradeAllCLI stays at the base default.
type Opkg struct {
	manager.Base
}

var _ manager.Manager = (*Opkg)(nil)

func NewOpkg(runner commandmanager.CommandManager) *Opkg {
	return &Opkg{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "opkg",
			Name:        "OPKG",
			Platforms:   []string{manager.PlatformLinux},
			CLINames:    []string{"opkg"},
			Requirement: "0.2.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

// parseOpkgList handles "name - 1.2.3-r0" and, for the upgradable listing,
// "name - 1.2.3-r0 - 1.2.4-r0" lines.
func parseOpkgList(output string) map[string][]string {
	entries := make(map[string][]string)
	for _, line := range lines(output) {
		parts := strings.Split(line, " - ")
		if len(parts) < 2 {
			continue
		}
		id := strings.TrimSpace(parts[0])
		var versions []string
		for _, part := range parts[1:] {
			versions = append(versions, strings.TrimSpace(part))
		}
		entries[id] = versions
	}
	return entries
}

func (o *Opkg) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := o.Run(ctx, "list-installed")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, versions := range parseOpkgList(result.STDOUT) {
		installed := version.Parse(versions[0])
		packages[id] = manager.PackageRecord{
			ID:               id,
			Name:             id,
			InstalledVersion: &installed,
		}
	}
	return packages, nil
}

// Search globs over the package index; descriptions appear as a third
// " - " separated field, which is how the extended mode widens matches.
func (o *Opkg) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	result, err := o.Run(ctx, "list", "*"+query+"*")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, versions := range parseOpkgList(result.STDOUT) {
		latest := version.Parse(versions[0])
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

func (o *Opkg) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := o.Run(ctx, "list-upgradable")
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for id, versions := range parseOpkgList(result.STDOUT) {
		record := manager.PackageRecord{ID: id, Name: id}
		installed := version.Parse(versions[0])
		record.InstalledVersion = &installed
		if len(versions) > 1 {
			latest := version.Parse(versions[1])
			record.LatestVersion = &latest
		}
		packages[id] = record
	}
	return packages, nil
}

func (o *Opkg) UpgradeCLI(id string, _ *version.Token) ([]string, error) {
	return o.CLI("upgrade", id), nil
}

func (o *Opkg) Sync(ctx context.Context) error {
	_, err := o.Run(ctx, "update")
	return err
}
