// Package pool holds the process-wide manager registry. The catalogue is
// instantiated once and shared: adapters memoize CLI discovery and version
// probes, so handing out fresh instances per call would redo that work and
// could disagree between calls.
package pool

import (
	"sort"
	"sync"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
	"github.com/metapkgops/metapkg/metapkg/manager"
	"github.com/metapkgops/metapkg/metapkg/managers"
)

var (
	once      sync.Once
	instances map[string]manager.Manager
)

// All returns the registry keyed by manager id.
func All() map[string]manager.Manager {
	once.Do(func() {
		instances = make(map[string]manager.Manager)
		for _, m := range managers.Catalogue(commandmanager.New()) {
			instances[m.ID()] = m
		}
	})
	return instances
}

// IDs returns every registered id in ascending order.
func IDs() []string {
	all := All()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the manager registered under id, or nil.
func Get(id string) manager.Manager {
	return All()[id]
}

// Select narrows the registry to the requested ids, in ascending id order.
// An empty include list selects everything. Exclusions win over inclusions,
// and ids naming no registered manager are ignored on both lists.
func Select(include, exclude []string) []manager.Manager {
	all := All()

	wanted := make(map[string]bool)
	if len(include) == 0 {
		for id := range all {
			wanted[id] = true
		}
	} else {
		for _, id := range include {
			if _, ok := all[id]; ok {
				wanted[id] = true
			}
		}
	}
	for _, id := range exclude {
		delete(wanted, id)
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	selected := make([]manager.Manager, 0, len(ids))
	for _, id := range ids {
		selected = append(selected, all[id])
	}
	return selected
}

// Reset discards the memoized registry so the next access rebuilds it.
// Exists for tests that mutate the process environment between accesses.
func Reset() {
	once = sync.Once{}
	instances = nil
}
