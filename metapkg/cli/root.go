// Package cli wires the command surface: one root command carrying the
// shared selection and output flags, one subcommand per batch operation.
package cli

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/metapkgops/metapkg/metapkg/batch"
	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/config"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/pool"
	"github.com/metapkgops/metapkg/metapkg/render"
)

type options struct {
	managers     []string
	excludes     []string
	outputFormat string
	cliFormat    string
	timeout      time.Duration
	verbosity    string
	configPath   string
	dryRun       bool
}

// NewRootCmd builds the metapkg command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "metapkg",
		Short: "One command surface over every package manager on the machine",
		Long: "metapkg drives the package managers installed on this machine " +
			"through one uniform command surface: list, search, sync, upgrade, " +
			"back up and restore across all of them at once.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringSliceVarP(&opts.managers, "manager", "m", nil, "restrict to these manager ids (repeatable)")
	flags.StringSliceVarP(&opts.excludes, "exclude", "e", nil, "drop these manager ids from the selection (wins over --manager)")
	flags.StringVarP(&opts.outputFormat, "output-format", "o", "", "output format: table, plain or json")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-manager time budget")
	flags.StringVarP(&opts.verbosity, "verbosity", "v", "", "log level: debug, info, warning or error")
	flags.StringVar(&opts.configPath, "config", "", "defaults file (default ~/.config/metapkg/metapkg.ini)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "plan mutating operations without running them")

	root.AddCommand(
		newManagersCmd(opts),
		newInstalledCmd(opts),
		newSearchCmd(opts),
		newOutdatedCmd(opts),
		newSyncCmd(opts),
		newCleanupCmd(opts),
		newUpgradeCmd(opts),
		newBackupCmd(opts),
		newRestoreCmd(opts),
	)
	return root
}

// setup merges the defaults file under the flags: a flag the invocation
// left untouched takes its value from the file, the rest stay as given.
func (o *options) setup(cmd *cobra.Command) error {
	path := o.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	defaults, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("manager") && len(defaults.Managers) > 0 {
		o.managers = defaults.Managers
	}
	if !flags.Changed("exclude") && len(defaults.Excludes) > 0 {
		o.excludes = defaults.Excludes
	}
	if !flags.Changed("output-format") && o.outputFormat == "" {
		o.outputFormat = defaults.OutputFormat
	}
	o.cliFormat = defaults.CLIFormat
	if !flags.Changed("timeout") && o.timeout == 0 {
		o.timeout = defaults.Timeout
	}
	if !flags.Changed("verbosity") && o.verbosity == "" {
		o.verbosity = defaults.Verbosity
	}
	if !flags.Changed("dry-run") && defaults.DryRun {
		o.dryRun = true
	}

	level, err := log.ParseLevel(o.verbosity)
	if err != nil {
		return fmt.Errorf("verbosity: %w", err)
	}
	log.SetLevel(level)

	switch o.outputFormat {
	case render.FormatTable, render.FormatPlain, render.FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", o.outputFormat)
	}
}

// decorated reports whether table output gets color and glyph markers.
func (o *options) decorated() bool {
	return o.outputFormat == render.FormatTable
}

func (o *options) selection() []manager.Manager {
	return pool.Select(o.managers, o.excludes)
}

func (o *options) runner() *batch.Runner {
	return &batch.Runner{
		Timeout: o.timeout,
		Exec:    commandmanager.New(),
		DryRun:  o.dryRun,
	}
}

// finish closes out a batch. Per-manager failures are part of a completed
// batch, already visible in the rendered report; they never flip the exit
// code. Only structural failures (bad flags, unreadable snapshot) do.
func (o *options) finish(report batch.Report) error {
	if !report.Failed() {
		return nil
	}
	failed := 0
	for _, id := range report.IDs() {
		if len(report[id].Errors) > 0 {
			failed++
		}
	}
	log.Warnf("%d of %d managers reported errors", failed, len(report))
	return nil
}
