// Package batch drives an operation across many managers at once. Each
// manager runs in its own goroutine against its own deadline, and whatever
// goes wrong with one never aborts the others: failures land in that
// manager's report entry and the batch carries on.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
)

// Runner executes batch operations. The zero value is not usable; build one
// with New.
type Runner struct {
	// Timeout bounds each manager's share of the batch. Zero means no
	// per-manager deadline beyond the caller's context.
	Timeout time.Duration

	// Concurrency caps how many managers run at once. Zero or negative
	// means unbounded.
	Concurrency int

	// Exec runs the upgrade and restore invocations planned by the
	// managers' capability methods.
	Exec commandmanager.CommandManager

	// DryRun plans upgrade and restore invocations without running them.
	DryRun bool
}

func New() *Runner {
	return &Runner{
		Timeout: commandmanager.DefaultTimeout,
		Exec:    commandmanager.New(),
	}
}

// run fans the operation out over the selection and collects one report
// entry per manager. The probe fields are filled before the operation runs,
// so unavailable managers still show up with their lattice state.
func (r *Runner) run(ctx context.Context, selected []manager.Manager, op func(context.Context, manager.Manager, *ManagerReport) error) Report {
	var wg sync.WaitGroup
	entries := make([]*ManagerReport, len(selected))

	var sem chan struct{}
	if r.Concurrency > 0 {
		sem = make(chan struct{}, r.Concurrency)
	}

	for i, m := range selected {
		wg.Add(1)
		go func(m manager.Manager, index int) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			opCtx := ctx
			if r.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, r.Timeout)
				defer cancel()
			}

			entry := newManagerReport(m)
			if op != nil {
				entry.recordError(op(opCtx, m, entry))
			}
			entries[index] = entry
		}(m, i)
	}
	wg.Wait()

	report := make(Report, len(entries))
	for _, entry := range entries {
		report[entry.ID] = entry
	}
	return report
}

// Managers reports the availability probe for the selection without running
// any package operation.
func (r *Runner) Managers(ctx context.Context, selected []manager.Manager) Report {
	return r.run(ctx, selected, nil)
}

// Installed lists installed packages per manager.
func (r *Runner) Installed(ctx context.Context, selected []manager.Manager) Report {
	return r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		packages, err := m.Installed(ctx)
		if err != nil {
			return err
		}
		entry.setPackages(packages)
		return nil
	})
}

// Search queries each manager's repository for the pattern.
func (r *Runner) Search(ctx context.Context, selected []manager.Manager, query string, extended, exact bool) Report {
	return r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		packages, err := m.Search(ctx, query, extended, exact)
		if err != nil {
			return err
		}
		entry.setPackages(packages)
		return nil
	})
}

// Outdated lists upgradable packages per manager, along with the upgrade
// invocations a caller could replay. Managers without the capability report
// the fact as an entry error and contribute no packages.
func (r *Runner) Outdated(ctx context.Context, selected []manager.Manager) Report {
	return r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		packages, err := m.Outdated(ctx)
		if err != nil {
			return err
		}
		entry.setPackages(packages)

		for id, record := range packages {
			argv, err := m.UpgradeCLI(id, record.LatestVersion)
			if err != nil {
				continue
			}
			entry.planUpgrade(id, argv)
		}
		if len(packages) > 0 {
			if argv, err := m.UpgradeAllCLI(); err == nil {
				entry.UpgradeAllCLI = argv
			}
		}
		return nil
	})
}

// Sync refreshes each manager's package index.
func (r *Runner) Sync(ctx context.Context, selected []manager.Manager) Report {
	return r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		return m.Sync(ctx)
	})
}

// Cleanup removes caches and orphans per manager.
func (r *Runner) Cleanup(ctx context.Context, selected []manager.Manager) Report {
	return r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		return m.Cleanup(ctx)
	})
}

// Upgrade brings every outdated package up to date. A manager with a
// one-shot upgrade gets it; otherwise the outdated listing is replayed
// package by package, and per-package failures accumulate without stopping
// the rest. With DryRun set the planned invocations are reported unrun.
func (r *Runner) Upgrade(ctx context.Context, selected []manager.Manager) Report {
	return r.run(ctx, selected, func(ctx context.Context, m manager.Manager, entry *ManagerReport) error {
		argv, err := m.UpgradeAllCLI()
		if err == nil {
			entry.UpgradeAllCLI = argv
			if r.DryRun {
				return nil
			}
			return r.invoke(ctx, argv)
		}
		if !errors.Is(err, manager.ErrCapabilityNotImplemented) {
			return err
		}

		packages, err := m.Outdated(ctx)
		if err != nil {
			return err
		}
		entry.setPackages(packages)

		var failures *multierror.Error
		for id, record := range packages {
			argv, err := m.UpgradeCLI(id, record.LatestVersion)
			if err != nil {
				failures = multierror.Append(failures, err)
				continue
			}
			entry.planUpgrade(id, argv)
			if r.DryRun {
				continue
			}
			if err := r.invoke(ctx, argv); err != nil {
				failures = multierror.Append(failures, err)
			}
		}
		return failures.ErrorOrNil()
	})
}

// invoke runs a planned argv through the executor.
func (r *Runner) invoke(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty invocation")
	}
	_, err := r.Exec.Run(ctx, commandmanager.CommandConfig{
		Command: argv[0],
		Args:    argv[1:],
	})
	return err
}
