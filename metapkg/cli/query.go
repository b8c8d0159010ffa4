package cli

import (
	"github.com/spf13/cobra"

	"github.com/metapkgops/metapkg/metapkg/batch"
	"github.com/metapkgops/metapkg/metapkg/render"
)

func newManagersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "managers",
		Short: "Show the catalogue and each manager's availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := opts.runner().Managers(cmd.Context(), opts.selection())
			if opts.outputFormat == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), report)
			}
			render.ManagersTable(cmd.OutOrStdout(), report, opts.decorated())
			return nil
		},
	}
}

func newInstalledCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: "List installed packages across the selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := opts.runner().Installed(cmd.Context(), opts.selection())
			if err := renderPackages(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var extended, exact bool

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search every selected manager's repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := opts.runner().Search(cmd.Context(), opts.selection(), args[0], extended, exact)
			if err := renderPackages(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
	cmd.Flags().BoolVar(&extended, "extended", false, "also match package descriptions where the manager can")
	cmd.Flags().BoolVar(&exact, "exact", false, "keep only packages whose id or name equals the pattern")
	return cmd
}

func newOutdatedCmd(opts *options) *cobra.Command {
	var cliFormat string

	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "List upgradable packages and their upgrade invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("cli-format") && opts.cliFormat != "" {
				cliFormat = opts.cliFormat
			}
			report := opts.runner().Outdated(cmd.Context(), opts.selection())
			if cliFormat != "" {
				var err error
				if opts.outputFormat == render.FormatJSON {
					err = render.JSONCLIFormat(cmd.OutOrStdout(), report, cliFormat)
				} else {
					err = render.CLIFormat(cmd.OutOrStdout(), report, cliFormat)
				}
				if err != nil {
					return err
				}
				return opts.finish(report)
			}
			if err := renderPackages(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
	cmd.Flags().StringVar(&cliFormat, "cli-format", "", "render upgrade invocations instead: plain, fragments or bitbar")
	return cmd
}

func renderPackages(cmd *cobra.Command, opts *options, report batch.Report) error {
	if opts.outputFormat == render.FormatJSON {
		return render.JSON(cmd.OutOrStdout(), report)
	}
	render.PackagesTable(cmd.OutOrStdout(), report, opts.decorated())
	return nil
}
