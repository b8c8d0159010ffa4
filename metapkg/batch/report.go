package batch

import (
	"sort"

	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// ManagerReport is the per-manager slice of a batch outcome: the
// availability probe, whatever packages the operation produced, and every
// error the manager raised while the others kept going.
type ManagerReport struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Supported  bool           `json:"supported"`
	Executable bool           `json:"executable"`
	Fresh      bool           `json:"fresh"`
	Available  bool           `json:"available"`
	CLIPath    string         `json:"cli_path,omitempty"`
	Version    *version.Token `json:"version,omitempty"`

	Errors   []string                `json:"errors,omitempty"`
	Packages []manager.PackageRecord `json:"packages,omitempty"`

	// UpgradeCLIs holds the literal invocation planned (or replayed) per
	// package id; UpgradeAllCLI the one-shot variant when the manager has
	// one. Populated by the outdated, upgrade and restore operations.
	UpgradeCLIs   map[string][]string `json:"upgrade_clis,omitempty"`
	UpgradeAllCLI []string            `json:"upgrade_all_cli,omitempty"`
}

func newManagerReport(m manager.Manager) *ManagerReport {
	return &ManagerReport{
		ID:         m.ID(),
		Name:       m.Name(),
		Supported:  m.Supported(),
		Executable: m.Executable(),
		Fresh:      m.Fresh(),
		Available:  m.Available(),
		CLIPath:    m.CLIPath(),
		Version:    m.Version(),
	}
}

func (mr *ManagerReport) recordError(err error) {
	if err == nil {
		return
	}
	mr.Errors = append(mr.Errors, err.Error())
}

// setPackages flattens an id-keyed record map into the id-ordered slice the
// report carries.
func (mr *ManagerReport) setPackages(packages map[string]manager.PackageRecord) {
	if len(packages) == 0 {
		return
	}
	records := make([]manager.PackageRecord, 0, len(packages))
	for _, record := range packages {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	mr.Packages = records
}

func (mr *ManagerReport) planUpgrade(id string, argv []string) {
	if mr.UpgradeCLIs == nil {
		mr.UpgradeCLIs = make(map[string][]string)
	}
	mr.UpgradeCLIs[id] = argv
}

// Report maps manager id to that manager's outcome. Every selected manager
// has exactly one entry, whether it succeeded, failed or was unavailable.
type Report map[string]*ManagerReport

// IDs returns the covered manager ids in ascending order.
func (r Report) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Failed reports whether any manager recorded an error.
func (r Report) Failed() bool {
	for _, mr := range r {
		if len(mr.Errors) > 0 {
			return true
		}
	}
	return false
}

// TotalPackages counts package records across all managers.
func (r Report) TotalPackages() int {
	total := 0
	for _, mr := range r {
		total += len(mr.Packages)
	}
	return total
}
