// Package managers holds the leaf adapters, one per package-management
// ecosystem. Each adapter embeds manager.Base for the shared availability
// lattice and implements the scraping of its own tool's output.
package managers

import (
	"strings"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
)

// Catalogue builds one fresh instance per known ecosystem, in id order. The
// id set is fixed at build time; there is no runtime registration.
func Catalogue(runner commandmanager.CommandManager) []manager.Manager {
	return []manager.Manager{
		NewApm(runner),
		NewApt(runner),
		NewBrew(runner),
		NewCask(runner),
		NewComposer(runner),
		NewFlatpak(runner),
		NewGem(runner),
		NewLinuxbrew(runner),
		NewMas(runner),
		NewNpm(runner),
		NewOpkg(runner),
		NewPip2(runner),
		NewPip3(runner),
		NewYarn(runner),
	}
}

// lines splits tool output into trimmed non-empty lines.
func lines(output string) []string {
	var result []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

var crossPlatform = []string{
	manager.PlatformMacOS,
	manager.PlatformLinux,
	manager.PlatformWindows,
}
