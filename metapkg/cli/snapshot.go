package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Snapshot installed packages to a TOML document",
		Long: "Snapshot the installed packages of every selected manager into a " +
			"TOML document, one section per manager, written to the file or to " +
			"standard output.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, report, err := opts.runner().Backup(cmd.Context(), opts.selection())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := os.WriteFile(args[0], data, 0o644); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
			} else {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			}
			return opts.finish(report)
		},
	}
}

func newRestoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Reinstall packages from a snapshot at their recorded versions",
		Long: "Replay a snapshot taken with backup: every package recorded for a " +
			"selected manager is reinstalled at its recorded version. Sections " +
			"for managers outside the selection are ignored.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			report, err := opts.runner().Restore(cmd.Context(), data, opts.selection())
			if err != nil {
				return err
			}
			if err := renderStatus(cmd, opts, report); err != nil {
				return err
			}
			return opts.finish(report)
		},
	}
}
