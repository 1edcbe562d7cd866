/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package ignorepass computes the two graph-level fixed points (C9):
// transitive ignore propagation, and the entry-reachability closure.
//
// The propagation predicate preserves a subtlety of the originating tool:
// a reverse dependent that is itself one of the module's own dependencies
// counts as satisfied (see isCyclicMutual), so mutually-recursive pairs
// whose only consumers are each other prune together. This behavior is
// documented rather than resolved away.
package ignorepass

import (
	"errors"
	"fmt"

	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
)

// ErrMissingDependency is raised by EntryClosure in non-aggressive mode
// when a module's dependency slot names a moduleId absent from the graph.
var ErrMissingDependency = errors.New("ignorepass: missing dependency")

// Propagate repeatedly marks as ignored every non-ignored, non-NPM module
// with at least one reverse dependent, all of whose reverse dependents are
// either already ignored or cyclic-mutual with it. It terminates when one
// sweep marks nothing, and returns the number of modules newly ignored.
// Modules only ever transition into the ignored state (invariant 3).
func Propagate(g *graph.Graph) int {
	total := 0
	for {
		marked := 0
		for _, m := range g.All() {
			if m.Ignored || m.IsNpmModule {
				continue
			}
			if ignorable(g, m) {
				m.Ignore()
				marked++
			}
		}
		total += marked
		if marked == 0 {
			return total
		}
	}
}

func ignorable(g *graph.Graph, m *module.Module) bool {
	dependents := g.Dependents(m.ModuleID)
	if len(dependents) == 0 {
		return false
	}
	for _, id := range dependents {
		dep, ok := g.Get(id)
		if !ok {
			// Dropped by an earlier entry closure; a consumer that no longer
			// exists cannot keep m alive.
			continue
		}
		if dep.Ignored {
			continue
		}
		if isCyclicMutual(m, id) {
			continue
		}
		return false
	}
	return true
}

// isCyclicMutual reports whether the reverse dependent with the given id is
// itself one of m's own dependencies -- the cycle case the propagation
// predicate treats as satisfied.
func isCyclicMutual(m *module.Module, id int) bool {
	for _, dep := range m.Dependencies {
		if dep != nil && *dep == id {
			return true
		}
	}
	return false
}

// EntryClosure drops from g every module not reachable from entry through
// Dependencies. In non-aggressive mode a dependency slot naming an absent
// moduleId is fatal with ErrMissingDependency; in aggressive mode (cached
// ignore flags trusted, bodies possibly stubbed) it is silently skipped.
func EntryClosure(g *graph.Graph, entry int, aggressive bool) error {
	if _, ok := g.Get(entry); !ok {
		return fmt.Errorf("%w: entry module %d not in graph", ErrMissingDependency, entry)
	}

	reachable := map[int]bool{entry: true}
	worklist := []int{entry}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		m, _ := g.Get(id)
		for slot, dep := range m.Dependencies {
			if dep == nil {
				continue
			}
			if _, ok := g.Get(*dep); !ok {
				if aggressive {
					continue
				}
				return fmt.Errorf("%w: module %d slot %d references %d", ErrMissingDependency, id, slot, *dep)
			}
			if !reachable[*dep] {
				reachable[*dep] = true
				worklist = append(worklist, *dep)
			}
		}
	}

	for _, m := range g.All() {
		if !reachable[m.ModuleID] {
			g.Delete(m.ModuleID)
		}
	}
	g.InvalidateReverseCache()
	return nil
}
