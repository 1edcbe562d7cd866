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

// Package graph builds and indexes the module graph (C3): a sparse
// moduleId -> Module mapping resolved from a bundle's __d(...) calls, frozen
// once construction completes.
package graph

import (
	"slices"
	"sync"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/module"
)

// Graph is a sparse moduleId -> *module.Module index. After Build returns,
// which moduleIds exist changes only through Add (bundlecache's
// aggressive-mode loader) and Delete (the entry-closure pass); the mutex
// here only guards the reverse-dependents cache that ignorepass computes
// lazily.
type Graph struct {
	modules map[int]*module.Module

	mu          sync.Mutex
	reverseDeps map[int][]int
	reverseOnce sync.Once
}

// New returns an empty graph. Exported for tests; production code builds a
// graph via Build.
func New() *Graph {
	return &Graph{modules: make(map[int]*module.Module)}
}

// Add registers m in the graph, keyed by its ModuleID. Only construction
// code (Build, bundlecache's aggressive-mode loader) should call this.
func (g *Graph) Add(m *module.Module) { g.modules[m.ModuleID] = m }

// Get returns the module with the given id, if present.
func (g *Graph) Get(id int) (*module.Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// Delete removes a module from the graph. Used only by the entry-closure
// pass (C9), which is the one place the graph is allowed to shrink after
// construction.
func (g *Graph) Delete(id int) { delete(g.modules, id) }

// Len returns the number of modules in the graph.
func (g *Graph) Len() int { return len(g.modules) }

// All returns every module, ordered by ModuleID for deterministic output.
func (g *Graph) All() []*module.Module {
	ids := make([]int, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*module.Module, len(ids))
	for i, id := range ids {
		out[i] = g.modules[id]
	}
	return out
}

// Dependents returns the ids of modules that directly depend on id, sorted.
// Computed once on first call and cached; valid until the next Delete, so
// ignorepass must not call Delete between Dependents calls during a single
// propagation run.
func (g *Graph) Dependents(id int) []int {
	g.reverseOnce.Do(g.buildReverse)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reverseDeps[id]
}

func (g *Graph) buildReverse() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reverseDeps = make(map[int][]int)
	for _, m := range g.modules {
		for _, dep := range m.Dependencies {
			if dep == nil {
				continue
			}
			g.reverseDeps[*dep] = append(g.reverseDeps[*dep], m.ModuleID)
		}
	}
	for id := range g.reverseDeps {
		slices.Sort(g.reverseDeps[id])
	}
}

// InvalidateReverseCache forces the next Dependents call to recompute, used
// after the entry-closure pass drops modules.
func (g *Graph) InvalidateReverseCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reverseDeps = nil
	g.reverseOnce = sync.Once{}
}

// BuildResult is the outcome of Build: a frozen-topology Graph plus any
// per-module construction errors (MalformedRegistration), which the driver
// logs without aborting the rest of the bundle (spec.md §4.2, §7).
type BuildResult struct {
	Graph  *Graph
	Errors []error
}

// Build parses bundleSource once and enumerates every __d(...) registration
// found anywhere in it via a single traversal, matching CallExpression nodes
// whose callee is the identifier __d and calling Skip() immediately so
// nested __d calls (not expected in well-formed bundles) never cause
// quadratic traversal of factory bodies (spec.md §4.3).
func Build(bundleSource []byte) (*BuildResult, error) {
	tree, err := ast.Parse(bundleSource)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	g := New()
	var errs []error

	ast.Walk(tree.Root(), func(p *ast.NodePath) {
		if p.Kind() != "call_expression" {
			return
		}
		fn := p.ChildByFieldName("function")
		if fn == nil || fn.Kind() != "identifier" || fn.Text() != "__d" {
			return
		}
		p.Skip()

		m, err := module.New(p)
		if err != nil {
			errs = append(errs, err)
			return
		}
		g.Add(m)
	})

	return &BuildResult{Graph: g, Errors: errs}, nil
}
