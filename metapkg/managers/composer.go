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

// Composer wraps PHP's Composer, operating on the global project. The
// "global" modifier is passed per data operation rather than as a global
// arg because maintenance commands like clear-cache reject it.
type Composer struct {
	manager.Base
}

var _ manager.Manager = (*Composer)(nil)

func NewComposer(runner commandmanager.CommandManager) *Composer {
	return &Composer{Base: manager.Base{
		Descriptor: manager.Descriptor{
			ID:          "composer",
			Name:        "PHP's Composer",
			Platforms:   crossPlatform,
			CLINames:    []string{"composer"},
			Requirement: "1.4.0",
			VersionArgs: []string{"--version"},
		},
		Runner: runner,
	}}
}

type composerShowPayload struct {
	Installed []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Latest  string `json:"latest"`
	} `json:"installed"`
}

func (c *Composer) Installed(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := c.Run(ctx, "global", "show", "--format=json")
	if err != nil {
		return nil, err
	}

	var payload composerShowPayload
	if err := json.Unmarshal([]byte(result.STDOUT), &payload); err != nil {
		return nil, fmt.Errorf("%s installed: %w", c.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(payload.Installed))
	for _, entry := range payload.Installed {
		installed := version.Parse(entry.Version)
		packages[entry.Name] = manager.PackageRecord{
			ID:               entry.Name,
			Name:             entry.Name,
			InstalledVersion: &installed,
		}
	}
	return packages, nil
}

// Search parses `composer global search` lines: "vendor/pkg description".
// Packagist matches descriptions by default; the --only-name flag narrows
// the non-extended mode to names.
func (c *Composer) Search(ctx context.Context, query string, extended, exact bool) (map[string]manager.PackageRecord, error) {
	args := []string{"global", "search"}
	if !extended {
		args = append(args, "--only-name")
	}
	args = append(args, query)

	result, err := c.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]manager.PackageRecord)
	for _, line := range lines(result.STDOUT) {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.Contains(fields[0], "/") {
			continue
		}
		id := fields[0]
		packages[id] = manager.PackageRecord{ID: id, Name: id}
	}
	if exact {
		packages = manager.FilterExact(packages, query)
	}
	return packages, nil
}

func (c *Composer) Outdated(ctx context.Context) (map[string]manager.PackageRecord, error) {
	result, err := c.Run(ctx, "global", "outdated", "--format=json")
	if err != nil {
		return nil, err
	}

	var payload composerShowPayload
	if err := json.Unmarshal([]byte(result.STDOUT), &payload); err != nil {
		return nil, fmt.Errorf("%s outdated: %w", c.ID(), err)
	}

	packages := make(map[string]manager.PackageRecord, len(payload.Installed))
	for _, entry := range payload.Installed {
		installed := version.Parse(entry.Version)
		latest := version.Parse(entry.Latest)
		packages[entry.Name] = manager.PackageRecord{
			ID:               entry.Name,
			Name:             entry.Name,
			InstalledVersion: &installed,
			LatestVersion:    &latest,
		}
	}
	return packages, nil
}

// UpgradeCLI pins with Composer's pkg:version requirement syntax when a
// version is requested.
func (c *Composer) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	if ver != nil {
		return c.CLI("global", "require", id+":"+ver.String()), nil
	}
	return c.CLI("global", "update", id), nil
}

func (c *Composer) UpgradeAllCLI() ([]string, error) {
	return c.CLI("global", "update"), nil
}

func (c *Composer) Cleanup(ctx context.Context) error {
	_, err := c.Run(ctx, "clear-cache")
	return err
}
