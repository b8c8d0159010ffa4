package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// versionPattern extracts the leading numeric version from raw tool output
// such as "Homebrew 1.7.4" or "apt 2.0.2 (amd64)".
var versionPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)*`)

// Base carries the descriptor, the external-process collaborator and the
// memoized derived state shared by every ecosystem adapter. Adapters embed
// it and implement the data operations; the optional capabilities default to
// ErrCapabilityNotImplemented (or a silent no-op for Sync/Cleanup) unless
// the adapter shadows them.
//
// CLIPath and Version are pure functions of the filesystem and the tool's
// own version output: computed lazily, memoized once, never invalidated
// within a run.
type Base struct {
	Descriptor

	// Runner executes the external tool. Tests inject fakes here.
	Runner commandmanager.CommandManager

	// OS overrides runtime.GOOS, for tests only.
	OS string

	// ExtractVersion pulls the version substring out of the raw output of
	// the version invocation. Defaults to the first numeric run.
	ExtractVersion func(raw string) string

	cliPathOnce sync.Once
	cliPath     string

	versionOnce sync.Once
	version     *version.Token
}

func (b *Base) ID() string              { return b.Descriptor.ID }
func (b *Base) Name() string            { return b.Descriptor.Name }
func (b *Base) Platforms() []string     { return b.Descriptor.Platforms }
func (b *Base) CLINames() []string      { return b.Descriptor.CLINames }
func (b *Base) GlobalArgs() []string    { return b.Descriptor.GlobalArgs }
func (b *Base) Requirement() version.Token {
	return version.Parse(b.Descriptor.Requirement)
}

// CLISearchPath returns the extra search directories, deduplicated and in
// declaration order.
func (b *Base) CLISearchPath() []string {
	seen := make(map[string]struct{}, len(b.Descriptor.CLISearchPath))
	var dirs []string
	for _, dir := range b.Descriptor.CLISearchPath {
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

func (b *Base) goos() string {
	if b.OS != "" {
		return b.OS
	}
	return runtime.GOOS
}

// CLIPath resolves the tool's location: extra search directories first, then
// the process PATH, first existing match among the candidate names. The
// check deliberately does not resolve symlinks — the resolved path may
// itself be a symlink whose identity matters to the tool's runtime
// environment — but the candidate must be a regular file or a symlink to
// one. Memoized after the first search; empty when nothing was found.
func (b *Base) CLIPath() string {
	b.cliPathOnce.Do(func() {
		b.cliPath = b.resolveCLIPath()
		if b.cliPath == "" {
			log.WithField("manager", b.ID()).Debug("CLI not found")
		} else {
			log.WithFields(log.Fields{
				"manager": b.ID(),
				"path":    b.cliPath,
			}).Debug("CLI found")
		}
	})
	return b.cliPath
}

func (b *Base) resolveCLIPath() string {
	dirs := b.CLISearchPath()
	dirs = append(dirs, filepath.SplitList(os.Getenv("PATH"))...)

	for _, name := range b.Descriptor.CLINames {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, name)
			if !isFileNoFollow(candidate) {
				continue
			}
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			return abs
		}
	}
	return ""
}

// isFileNoFollow reports whether path is a regular file or a symlink
// pointing at one, without replacing the path by the symlink target.
func isFileNoFollow(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Stat(path)
		return err == nil && target.Mode().IsRegular()
	}
	return info.Mode().IsRegular()
}

// GetVersion invokes the tool for its raw version string. The global args
// are left out: the version belongs to the binary, not to any sub-surface
// selected by them. Each call runs the tool again; Version holds the
// memoized result.
func (b *Base) GetVersion(ctx context.Context) (string, error) {
	path := b.CLIPath()
	if path == "" {
		return "", fmt.Errorf("%s: %w", b.ID(), ErrManagerUnavailable)
	}
	if len(b.Descriptor.VersionArgs) == 0 {
		return "", nil
	}
	result, err := b.Runner.Run(ctx, commandmanager.CommandConfig{
		Command: path,
		Args:    b.Descriptor.VersionArgs,
	})
	if err != nil {
		return "", &InvocationError{ManagerID: b.ID(), Result: result, Err: err}
	}
	return strings.TrimSpace(result.STDOUT), nil
}

// Version returns the memoized token parsed from GetVersion output, or nil
// when the tool could not report a usable version.
func (b *Base) Version() *version.Token {
	b.versionOnce.Do(func() {
		raw, err := b.GetVersion(context.Background())
		if err != nil {
			log.WithFields(log.Fields{
				"manager": b.ID(),
				"error":   err,
			}).Debug("Version probe failed")
			return
		}
		extract := b.ExtractVersion
		if extract == nil {
			extract = versionPattern.FindString
		}
		cleaned := extract(raw)
		if cleaned == "" {
			return
		}
		token := version.Parse(cleaned)
		if token.IsEmpty() {
			return
		}
		b.version = &token
	})
	return b.version
}

// Supported reports whether the current OS is in the platform set.
func (b *Base) Supported() bool {
	current := b.goos()
	for _, platform := range b.Descriptor.Platforms {
		if platform == current {
			return true
		}
	}
	return false
}

// Executable reports whether the resolved CLI is launchable.
func (b *Base) Executable() bool {
	path := b.CLIPath()
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// Fresh reports whether the tool's version meets the requirement. An
// undetectable version counts as fresh: a tool that cannot report its
// version is optimistically accepted.
func (b *Base) Fresh() bool {
	v := b.Version()
	if v == nil {
		return true
	}
	return v.AtLeast(b.Requirement())
}

// Available is the terminal composite of the lattice.
func (b *Base) Available() bool {
	return b.Supported() && b.Executable() && b.Fresh()
}

// Run executes the tool with the global args followed by args, gated on
// Available. Data operations in the adapters all go through here.
func (b *Base) Run(ctx context.Context, args ...string) (commandmanager.CommandResult, error) {
	if !b.Available() {
		return commandmanager.CommandResult{}, fmt.Errorf("%s: %w", b.ID(), ErrManagerUnavailable)
	}
	full := append(append([]string{}, b.Descriptor.GlobalArgs...), args...)
	result, err := b.Runner.Run(ctx, commandmanager.CommandConfig{
		Command: b.CLIPath(),
		Args:    full,
	})
	if err != nil {
		return result, &InvocationError{ManagerID: b.ID(), Result: result, Err: err}
	}
	return result, nil
}

// CLI prepends the resolved path and global args to args, producing a
// literal invocation argument list for the upgrade capabilities.
func (b *Base) CLI(args ...string) []string {
	full := make([]string, 0, 1+len(b.Descriptor.GlobalArgs)+len(args))
	full = append(full, b.CLIPath())
	full = append(full, b.Descriptor.GlobalArgs...)
	return append(full, args...)
}

// Outdated is an optional capability; adapters with a native listing shadow
// this default.
func (b *Base) Outdated(ctx context.Context) (map[string]PackageRecord, error) {
	return nil, fmt.Errorf("%s outdated: %w", b.ID(), ErrCapabilityNotImplemented)
}

func (b *Base) UpgradeCLI(id string, ver *version.Token) ([]string, error) {
	return nil, fmt.Errorf("%s upgrade: %w", b.ID(), ErrCapabilityNotImplemented)
}

func (b *Base) UpgradeAllCLI() ([]string, error) {
	return nil, fmt.Errorf("%s upgrade all: %w", b.ID(), ErrCapabilityNotImplemented)
}

// Sync silently no-ops when the ecosystem has no metadata refresh. This is
// an intentional asymmetry with the upgrade capabilities, which surface
// ErrCapabilityNotImplemented instead.
func (b *Base) Sync(ctx context.Context) error {
	log.WithField("manager", b.ID()).Debug("Sync not supported, skipping")
	return nil
}

// Cleanup follows the same no-op-if-unsupported policy as Sync.
func (b *Base) Cleanup(ctx context.Context) error {
	log.WithField("manager", b.ID()).Debug("Cleanup not supported, skipping")
	return nil
}

// FilterExact keeps only the records whose id or name equals query.
func FilterExact(records map[string]PackageRecord, query string) map[string]PackageRecord {
	filtered := make(map[string]PackageRecord)
	for id, record := range records {
		if record.ID == query || record.Name == query {
			filtered[id] = record
		}
	}
	return filtered
}
