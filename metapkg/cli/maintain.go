package cli

import (
	"github.com/spf13/cobra"

	"github.com/metapkgops/metapkg/metapkg/batch"
	"github.com/metapkgops/metapkg/metapkg/render"
)

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh every selected manager's package index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := opts.runner().Sync(cmd.Context(), opts.selection())
			if err := renderStatus(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
}

func newCleanupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove caches and orphans across the selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := opts.runner().Cleanup(cmd.Context(), opts.selection())
			if err := renderStatus(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
}

func newUpgradeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade every outdated package across the selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := opts.runner().Upgrade(cmd.Context(), opts.selection())
			if err := renderStatus(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
}

func renderStatus(cmd *cobra.Command, opts *options, report batch.Report) error {
	if opts.outputFormat == render.FormatJSON {
		return render.JSON(cmd.OutOrStdout(), report)
	}
	render.StatusTable(cmd.OutOrStdout(), report, opts.decorated())
	return nil
}
