// Package render turns batch reports into terminal output: pretty-printed
// JSON for machine consumption, aligned tables for humans, and the CLI
// formats used to hand upgrade invocations to other tools.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/metapkgops/metapkg/metapkg/batch"
)

// Output formats selectable on the command line. Plain is the table layout
// without any color or glyph decoration.
const (
	FormatJSON  = "json"
	FormatTable = "table"
	FormatPlain = "plain"
)

// CLI formats for rendering upgrade invocations.
const (
	CLIPlain     = "plain"
	CLIFragments = "fragments"
	CLIBitBar    = "bitbar"
)

func init() {
	// fatih/color only checks for a terminal on its own package-level
	// writer; mirror that for the stdout we actually write to.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	badMark  = color.New(color.FgRed).Sprint("✗")
	errColor = color.New(color.FgRed).SprintFunc()
)

func mark(ok, decorated bool) string {
	switch {
	case ok && decorated:
		return okMark
	case ok:
		return "yes"
	case decorated:
		return badMark
	default:
		return "no"
	}
}

// JSON writes the report as indented JSON. Map keys marshal in ascending
// order, so identical reports render identically.
func JSON(w io.Writer, report batch.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// cliArgv marshals one upgrade invocation per the selected CLI format:
// plain joins it into a shell string, fragments keeps the argument list,
// bitbar the param-annotated fragment.
type cliArgv struct {
	argv []string
	mode string
}

func (c cliArgv) MarshalJSON() ([]byte, error) {
	switch c.mode {
	case CLIFragments:
		return json.Marshal(c.argv)
	case CLIBitBar:
		return json.Marshal(bitbarParams(c.argv))
	default:
		return json.Marshal(strings.Join(c.argv, " "))
	}
}

// cliManagerReport shadows the invocation fields so they marshal per mode.
type cliManagerReport struct {
	*batch.ManagerReport
	UpgradeCLIs   map[string]cliArgv `json:"upgrade_clis,omitempty"`
	UpgradeAllCLI *cliArgv           `json:"upgrade_all_cli,omitempty"`
}

// JSONCLIFormat writes the report as JSON with the upgrade_clis and
// upgrade_all_cli fields shaped by the CLI format mode.
func JSONCLIFormat(w io.Writer, report batch.Report, mode string) error {
	switch mode {
	case CLIPlain, CLIFragments, CLIBitBar:
	default:
		return fmt.Errorf("unknown CLI format %q", mode)
	}

	shaped := make(map[string]cliManagerReport, len(report))
	for id, entry := range report {
		out := cliManagerReport{ManagerReport: entry}
		if len(entry.UpgradeCLIs) > 0 {
			out.UpgradeCLIs = make(map[string]cliArgv, len(entry.UpgradeCLIs))
			for pkg, argv := range entry.UpgradeCLIs {
				out.UpgradeCLIs[pkg] = cliArgv{argv: argv, mode: mode}
			}
		}
		if len(entry.UpgradeAllCLI) > 0 {
			out.UpgradeAllCLI = &cliArgv{argv: entry.UpgradeAllCLI, mode: mode}
		}
		shaped[id] = out
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(shaped)
}

// ManagersTable writes the availability probe as an aligned table.
func ManagersTable(w io.Writer, report batch.Report, decorated bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSUPPORTED\tEXECUTABLE\tFRESH\tAVAILABLE\tVERSION\tCLI")
	for _, id := range report.IDs() {
		entry := report[id]
		version := "-"
		if entry.Version != nil {
			version = entry.Version.String()
		}
		cliPath := entry.CLIPath
		if cliPath == "" {
			cliPath = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.Name,
			mark(entry.Supported, decorated), mark(entry.Executable, decorated),
			mark(entry.Fresh, decorated), mark(entry.Available, decorated),
			version, cliPath)
	}
	tw.Flush()
	writeErrors(w, report, decorated)
}

// PackagesTable writes package listings (installed, search, outdated) as an
// aligned table, one row per package, grouped by manager id.
func PackagesTable(w io.Writer, report batch.Report, decorated bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MANAGER\tPACKAGE\tNAME\tINSTALLED\tLATEST")
	for _, id := range report.IDs() {
		for _, record := range report[id].Packages {
			installed, latest := "-", "-"
			if record.InstalledVersion != nil {
				installed = record.InstalledVersion.String()
			}
			if record.LatestVersion != nil {
				latest = record.LatestVersion.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, record.ID, record.Name, installed, latest)
		}
	}
	tw.Flush()
	writeErrors(w, report, decorated)
}

// StatusTable writes the outcome of package-less operations (sync, cleanup,
// upgrade, restore): one row per manager, ok or the first error.
func StatusTable(w io.Writer, report batch.Report, decorated bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MANAGER\tRESULT")
	for _, id := range report.IDs() {
		entry := report[id]
		result := "ok"
		if decorated {
			result = okMark
		}
		if len(entry.Errors) > 0 {
			result = entry.Errors[0]
			if decorated {
				result = errColor(result)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", id, result)
	}
	tw.Flush()
}

func writeErrors(w io.Writer, report batch.Report, decorated bool) {
	for _, id := range report.IDs() {
		for _, message := range report[id].Errors {
			if decorated {
				fmt.Fprintf(w, "%s %s: %s\n", badMark, id, errColor(message))
			} else {
				fmt.Fprintf(w, "%s: %s\n", id, message)
			}
		}
	}
}

// CLIFormat writes the upgrade invocations of a report in the requested
// format: each manager's per-package invocations in package-id order, then
// its one-shot upgrade when it has one. Plain joins each invocation into
// one shell-ready line; fragments keeps one argument per line with a blank
// line between invocations; bitbar emits BitBar menu lines with
// param1..paramN annotations.
func CLIFormat(w io.Writer, report batch.Report, mode string) error {
	switch mode {
	case CLIPlain:
		eachArgv(report, func(argv []string) {
			fmt.Fprintln(w, strings.Join(argv, " "))
		})
	case CLIFragments:
		eachArgv(report, func(argv []string) {
			for _, arg := range argv {
				fmt.Fprintln(w, arg)
			}
			fmt.Fprintln(w)
		})
	case CLIBitBar:
		writeBitBar(w, report)
	default:
		return fmt.Errorf("unknown CLI format %q", mode)
	}
	return nil
}

func eachArgv(report batch.Report, fn func(argv []string)) {
	for _, id := range report.IDs() {
		entry := report[id]
		for _, record := range entry.Packages {
			argv, ok := entry.UpgradeCLIs[record.ID]
			if !ok {
				continue
			}
			fn(argv)
		}
		if len(entry.UpgradeAllCLI) > 0 {
			fn(entry.UpgradeAllCLI)
		}
	}
}

func bitbarParams(argv []string) string {
	var b strings.Builder
	b.WriteString("bash=" + argv[0])
	for i, arg := range argv[1:] {
		fmt.Fprintf(&b, " param%d=%s", i+1, arg)
	}
	return b.String()
}

func bitbarLine(label string, argv []string) string {
	return fmt.Sprintf("%s | %s terminal=false refresh=true", label, bitbarParams(argv))
}

// writeBitBar renders the menu-bar plugin format: a header with the total,
// then per-manager submenus whose entries carry the upgrade commands split
// into param1..paramN arguments.
func writeBitBar(w io.Writer, report batch.Report) {
	fmt.Fprintf(w, "↑%d | dropdown=false\n---\n", report.TotalPackages())
	for _, id := range report.IDs() {
		entry := report[id]
		if len(entry.Packages) == 0 && len(entry.UpgradeAllCLI) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", entry.Name, len(entry.Packages))
		for _, record := range entry.Packages {
			argv, ok := entry.UpgradeCLIs[record.ID]
			if !ok || len(argv) == 0 {
				continue
			}
			fmt.Fprintln(w, bitbarLine(record.ID, argv))
		}
		if len(entry.UpgradeAllCLI) > 0 {
			fmt.Fprintln(w, bitbarLine("Upgrade all", entry.UpgradeAllCLI))
		}
	}
}
