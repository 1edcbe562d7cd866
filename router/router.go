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

// Package router drives one traversal of a module's working AST per pass,
// dispatching each visited node to every plugin that declared interest in
// its kind (C5). Tagger and Decompiler passes re-run to a bounded fixed
// point; Editor passes run exactly once.
package router

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
	"bennypowers.dev/unbundle/plugin"
)

// ErrFixpointExceeded is raised when a Tagger or Decompiler pass fails to
// settle within maxFixpointIterations runs.
var ErrFixpointExceeded = errors.New("router: fixed point not reached")

// maxFixpointIterations bounds Tagger/Decompiler reruns per spec.md §4.5.3's
// "small implementation-defined bound (e.g., 16 iterations)".
const maxFixpointIterations = 16

// Metrics accumulates per-plugin wall-clock time across a run, reset
// between passes, realizing spec.md §6's --performance option and §5's
// "Performance timers are per-plugin wall-clock accumulators".
type Metrics struct {
	mu        sync.Mutex
	durations map[string]time.Duration
}

// NewMetrics returns an empty accumulator.
func NewMetrics() *Metrics {
	return &Metrics{durations: make(map[string]time.Duration)}
}

func (m *Metrics) add(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[name] += d
}

// Snapshot returns a copy of the accumulated durations.
func (m *Metrics) Snapshot() map[string]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Duration, len(m.durations))
	for k, v := range m.durations {
		out[k] = v
	}
	return out
}

// Reset clears all accumulated durations.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = make(map[string]time.Duration)
}

// described is the shape shared by Tagger, Editor and Decompiler, letting
// dispatch-table construction be written once as a generic helper instead of
// three near-identical copies.
type described interface {
	Descriptor() plugin.Descriptor
}

// Router owns the registered plugin set and drives passes over modules.
type Router struct {
	taggers     []plugin.Tagger
	editors     []plugin.Editor
	decompilers []plugin.Decompiler
	metrics     *Metrics
}

// New returns a Router with no plugins registered.
func New() *Router {
	return &Router{metrics: NewMetrics()}
}

// RegisterTagger adds t to the Tagger pass.
func (r *Router) RegisterTagger(t plugin.Tagger) { r.taggers = append(r.taggers, t) }

// RegisterEditor adds e to the Editor pass.
func (r *Router) RegisterEditor(e plugin.Editor) { r.editors = append(r.editors, e) }

// RegisterDecompiler adds d to the Decompiler pass.
func (r *Router) RegisterDecompiler(d plugin.Decompiler) { r.decompilers = append(r.decompilers, d) }

// Metrics returns the router's performance accumulator.
func (r *Router) Metrics() *Metrics { return r.metrics }

func buildDispatch[T described](items []T) (byKind map[string][]T, whole []T) {
	byKind = make(map[string][]T)
	for _, it := range items {
		d := it.Descriptor()
		if d.IsWholeModule() {
			whole = append(whole, it)
			continue
		}
		for _, kind := range d.NodeKinds {
			byKind[kind] = append(byKind[kind], it)
		}
	}
	sortByPriority(whole)
	for kind := range byKind {
		sortByPriority(byKind[kind])
	}
	return byKind, whole
}

func sortByPriority[T described](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Descriptor().Priority < items[j].Descriptor().Priority
	})
}

// RunTaggers runs the Tagger pass over m to a fixed point: each iteration
// re-walks m.ModuleCode (structural taggers see the latest tag state set by
// earlier-ordered taggers within the same node, per spec.md §4.5's ordering
// guarantee) until no tagger reports a change.
func (r *Router) RunTaggers(g *graph.Graph, m *module.Module) error {
	byKind, whole := buildDispatch(r.taggers)

	for iter := 0; iter < maxFixpointIterations; iter++ {
		changed := false

		for _, t := range whole {
			if r.evalTagger(t, g, m, nil) {
				changed = true
			}
		}

		ast.Walk(m.ModuleCode.Root(), func(p *ast.NodePath) {
			for _, t := range byKind[p.Kind()] {
				if r.evalTagger(t, g, m, p) {
					changed = true
				}
			}
		})

		if !changed {
			return nil
		}
	}
	return fmt.Errorf("%w: tagger pass on module %d", ErrFixpointExceeded, m.ModuleID)
}

func (r *Router) evalTagger(t plugin.Tagger, g *graph.Graph, m *module.Module, p *ast.NodePath) bool {
	start := time.Now()
	changed := t.Evaluate(&plugin.Context{Module: m, Graph: g, Path: p})
	r.metrics.add(t.Descriptor().Name, time.Since(start))
	return changed
}

// RunEditors runs the Editor pass over m exactly once (no fixed-point
// rerun, per spec.md §4.5.3) and bakes any recorded edits back into
// m.ModuleCode.
func (r *Router) RunEditors(g *graph.Graph, m *module.Module) error {
	byKind, whole := buildDispatch(r.editors)
	root := m.ModuleCode.Root()

	for _, e := range whole {
		r.evalEditor(e, g, m, nil)
	}
	ast.Walk(root, func(p *ast.NodePath) {
		for _, e := range byKind[p.Kind()] {
			r.evalEditor(e, g, m, p)
		}
	})

	return r.applyPendingEdits(m, root)
}

func (r *Router) evalEditor(e plugin.Editor, g *graph.Graph, m *module.Module, p *ast.NodePath) {
	start := time.Now()
	e.Evaluate(&plugin.Context{Module: m, Graph: g, Path: p})
	r.metrics.add(e.Descriptor().Name, time.Since(start))
}

// RunDecompilers runs the Decompiler pass over m to a fixed point. Because
// the AST facade models mutation as a batch of text edits rather than
// in-place tree surgery, each iteration that produced a change reparses the
// edited source before the next iteration re-walks it -- matching spec.md
// §4.5's "Across iterations, the entire tree is re-seen".
func (r *Router) RunDecompilers(g *graph.Graph, m *module.Module) error {
	byKind, whole := buildDispatch(r.decompilers)

	for iter := 0; iter < maxFixpointIterations; iter++ {
		root := m.ModuleCode.Root()
		changed := false

		for _, d := range whole {
			if r.evalDecompiler(d, g, m, nil) {
				changed = true
			}
		}
		ast.Walk(root, func(p *ast.NodePath) {
			for _, d := range byKind[p.Kind()] {
				if r.evalDecompiler(d, g, m, p) {
					changed = true
				}
			}
		})

		if !changed {
			return nil
		}
		if err := r.applyPendingEdits(m, root); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: decompiler pass on module %d", ErrFixpointExceeded, m.ModuleID)
}

func (r *Router) evalDecompiler(d plugin.Decompiler, g *graph.Graph, m *module.Module, p *ast.NodePath) bool {
	start := time.Now()
	changed := d.Evaluate(&plugin.Context{Module: m, Graph: g, Path: p})
	r.metrics.add(d.Descriptor().Name, time.Since(start))
	return changed
}

// applyPendingEdits splices root's accumulated edits over m.ModuleCode's
// source, syntax-gates the result and reparses it as m's new working tree.
func (r *Router) applyPendingEdits(m *module.Module, root *ast.NodePath) error {
	edits := ast.Edits(root)
	if len(edits) == 0 {
		return nil
	}
	out, err := ast.Print(m.ModuleCode.Source(), edits)
	if err != nil {
		return err
	}
	newTree, err := ast.Parse(out)
	if err != nil {
		return err
	}
	m.ModuleCode.Close()
	m.ModuleCode = newTree
	return nil
}
