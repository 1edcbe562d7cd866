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
package router_test

import (
	"errors"
	"testing"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
	"bennypowers.dev/unbundle/plugin"
	"bennypowers.dev/unbundle/router"
)

func newModule(t *testing.T, src string) *module.Module {
	t.Helper()
	tree, err := ast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()
	var call *ast.NodePath
	ast.Walk(tree.Root(), func(p *ast.NodePath) {
		if call == nil && p.Kind() == "call_expression" {
			call = p
		}
	})
	m, err := module.New(call)
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	return m
}

// countingTagger tags the module on its first run and reports the one
// change; subsequent runs are idempotent no-ops, so the fixed point settles
// after exactly one extra iteration.
type countingTagger struct{ evaluations *int }

func (countingTagger) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{Name: "counting-tagger", Pass: plugin.TaggerPass, NodeKinds: []string{plugin.WholeModule}}
}

func (c countingTagger) Evaluate(ctx *plugin.Context) bool {
	*c.evaluations++
	if ctx.Module.HasTag("counted") {
		return false
	}
	ctx.Module.Tag("counted", nil)
	return true
}

func TestRunTaggersReachesFixedPoint(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports=1;},0,[]);`)
	r := router.New()
	evaluations := 0
	r.RegisterTagger(countingTagger{evaluations: &evaluations})

	if err := r.RunTaggers(graph.New(), m); err != nil {
		t.Fatalf("RunTaggers: %v", err)
	}
	if !m.HasTag("counted") {
		t.Fatalf("expected module to be tagged")
	}
	// One iteration that tags + one confirming iteration that sees no change.
	if evaluations != 2 {
		t.Fatalf("evaluations = %d, want 2", evaluations)
	}
}

// neverSettlingTagger always reports a change, forcing FixpointExceeded.
type neverSettlingTagger struct{}

func (neverSettlingTagger) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{Name: "never-settling", Pass: plugin.TaggerPass, NodeKinds: []string{plugin.WholeModule}}
}
func (neverSettlingTagger) Evaluate(ctx *plugin.Context) bool { return true }

func TestRunTaggersSurfacesFixpointExceeded(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports=1;},0,[]);`)
	r := router.New()
	r.RegisterTagger(neverSettlingTagger{})

	err := r.RunTaggers(graph.New(), m)
	if !errors.Is(err, router.ErrFixpointExceeded) {
		t.Fatalf("expected ErrFixpointExceeded, got %v", err)
	}
}

// replaceNumberEditor rewrites every number literal to "99" once.
type replaceNumberEditor struct{}

func (replaceNumberEditor) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{Name: "replace-number", Pass: plugin.EditorPass, NodeKinds: []string{"number"}}
}
func (replaceNumberEditor) Evaluate(ctx *plugin.Context) { ctx.Path.Replace("99") }

func TestRunEditorsAppliesEditsOnce(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports=1;},0,[]);`)
	r := router.New()
	r.RegisterEditor(replaceNumberEditor{})

	if err := r.RunEditors(graph.New(), m); err != nil {
		t.Fatalf("RunEditors: %v", err)
	}
	if string(m.ModuleCode.Source()) != "m.exports=99;" {
		t.Fatalf("ModuleCode source = %q, want m.exports=99;", m.ModuleCode.Source())
	}
}

// incrementDecompiler rewrites a number to its successor until it reaches 3,
// exercising the decompiler fixed-point reparse loop.
type incrementDecompiler struct{}

func (incrementDecompiler) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{Name: "increment", Pass: plugin.DecompilerPass, NodeKinds: []string{"number"}}
}
func (incrementDecompiler) Evaluate(ctx *plugin.Context) bool {
	if ctx.Path.Text() == "3" {
		return false
	}
	n := 0
	for _, c := range ctx.Path.Text() {
		n = n*10 + int(c-'0')
	}
	ctx.Path.Replace(itoa(n + 1))
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestRunDecompilersReparsesBetweenIterations(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports=1;},0,[]);`)
	r := router.New()
	r.RegisterDecompiler(incrementDecompiler{})

	if err := r.RunDecompilers(graph.New(), m); err != nil {
		t.Fatalf("RunDecompilers: %v", err)
	}
	if string(m.ModuleCode.Source()) != "m.exports=3;" {
		t.Fatalf("ModuleCode source = %q, want m.exports=3;", m.ModuleCode.Source())
	}
}
