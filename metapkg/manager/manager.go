// Package manager defines the capability contract every package-manager
// ecosystem implements, along with the derived availability state shared by
// all of them. One concrete type per ecosystem lives in the managers package;
// callers only ever see the Manager interface.
package manager

import (
	"context"

	"github.com/metapkgops/metapkg/metapkg/version"
)

// Platform identifiers, matching runtime.GOOS values.
const (
	PlatformMacOS   = "darwin"
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
)

// Descriptor is the fixed catalogue entry for one ecosystem. Instances are
// immutable and exist for the process lifetime.
type Descriptor struct {
	// ID is the short lowercase-ascii token, globally unique.
	ID string
	// Name is the human-readable display name.
	Name string
	// Platforms lists the OS identifiers the tool runs on.
	Platforms []string
	// CLINames are the candidate executable basenames, in search order.
	CLINames []string
	// CLISearchPath lists extra absolute directories searched before PATH.
	CLISearchPath []string
	// Requirement is the minimal supported version of the tool.
	Requirement string
	// VersionArgs are the arguments that make the tool print its version.
	VersionArgs []string
	// GlobalArgs are fixed arguments inserted into every invocation.
	GlobalArgs []string
}

// Manager is the uniform surface over one package-management ecosystem.
//
// The boolean accessors form a small lattice, recomputed per process:
// Supported (platform check) refines to Executable (CLI found and
// launchable) refines to Fresh (version meets the requirement), and
// Available is their conjunction. Every data-returning operation requires
// Available; calling one while unavailable yields ErrManagerUnavailable.
type Manager interface {
	ID() string
	Name() string
	Platforms() []string
	CLINames() []string
	CLISearchPath() []string
	GlobalArgs() []string
	Requirement() version.Token

	// CLIPath is the resolved absolute path of the tool, memoized after the
	// first search. Empty when no candidate was found.
	CLIPath() string
	// GetVersion invokes the tool for its raw version string. Not memoized:
	// each call runs the tool again.
	GetVersion(ctx context.Context) (string, error)
	// Version is the memoized token built from GetVersion. Nil when the
	// invocation failed or its output held no version.
	Version() *version.Token

	Supported() bool
	Executable() bool
	Fresh() bool
	Available() bool

	// Installed maps package id to a record carrying the installed version.
	Installed(ctx context.Context) (map[string]PackageRecord, error)
	// Search maps package id to a record carrying the latest version.
	// exact restricts matches to id/name equality; extended additionally
	// matches descriptive text where the tool exposes it.
	Search(ctx context.Context, query string, extended, exact bool) (map[string]PackageRecord, error)
	// Outdated maps package id to a record carrying both versions. Optional:
	// returns ErrCapabilityNotImplemented for tools with no native listing.
	Outdated(ctx context.Context) (map[string]PackageRecord, error)

	// UpgradeCLI returns the literal argument list upgrading one package,
	// optionally pinned to a version. Optional capability.
	UpgradeCLI(id string, ver *version.Token) ([]string, error)
	// UpgradeAllCLI returns the argument list upgrading every outdated
	// package in one invocation. Optional capability.
	UpgradeAllCLI() ([]string, error)

	// Sync refreshes the tool's local repository metadata. Silently no-ops
	// when the ecosystem has no equivalent.
	Sync(ctx context.Context) error
	// Cleanup removes obsolete cached artifacts, same no-op policy as Sync.
	Cleanup(ctx context.Context) error
}

// PackageRecord describes one package as reported by a manager. Records are
// immutable once produced. A nil version means the ecosystem did not report
// one.
type PackageRecord struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	InstalledVersion *version.Token `json:"installed_version,omitempty"`
	LatestVersion    *version.Token `json:"latest_version,omitempty"`
}
