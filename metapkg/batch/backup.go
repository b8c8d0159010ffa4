package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"

	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/version"
)

// ErrMalformedDocument marks a package snapshot whose structure cannot be
// read at all. Unknown manager sections are not malformed; they are skipped.
var ErrMalformedDocument = errors.New("malformed package snapshot")

// snapshot is the persisted form: one table per manager id, mapping package
// id to its canonical version string. TOML tables and keys marshal in
// ascending order, so identical installations produce identical documents.
type snapshot map[string]map[string]string

// Backup captures the installed packages of the selection as a TOML
// document, one section per manager that has any. Managers that fail to
// list contribute an error entry in the report; the document still covers
// the rest.
func (r *Runner) Backup(ctx context.Context, selected []manager.Manager) ([]byte, Report, error) {
	report := r.Installed(ctx, selected)

	doc := make(snapshot)
	for id, entry := range report {
		if len(entry.Packages) == 0 {
			continue
		}
		section := make(map[string]string, len(entry.Packages))
		for _, record := range entry.Packages {
			if record.InstalledVersion == nil {
				section[record.ID] = ""
				continue
			}
			section[record.ID] = record.InstalledVersion.String()
		}
		doc[id] = section
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, report, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, report, nil
}

// Restore replays a snapshot: for each selected manager with a section, each
// recorded package is reinstalled at its recorded version through the
// manager's pinned upgrade invocation. Sections naming no selected manager
// are ignored, matching documents taken on other machines or older
// catalogues. A document that does not parse as a table of tables is
// rejected with ErrMalformedDocument.
func (r *Runner) Restore(ctx context.Context, data []byte, selected []manager.Manager) (Report, error) {
	var doc snapshot
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	report := r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		section, ok := doc[m.ID()]
		if !ok {
			return nil
		}

		var failures *multierror.Error
		for id, raw := range section {
			var pin *version.Token
			if raw != "" {
				token := version.Parse(raw)
				pin = &token
			}
			argv, err := m.UpgradeCLI(id, pin)
			if err != nil {
				failures = multierror.Append(failures, fmt.Errorf("%s: %w", id, err))
				continue
			}
			entry.planUpgrade(id, argv)
			if r.DryRun {
				continue
			}
			if err := r.invoke(ctx, argv); err != nil {
				failures = multierror.Append(failures, fmt.Errorf("%s: %w", id, err))
			}
		}
		return failures.ErrorOrNil()
	})
	return report, nil
}
