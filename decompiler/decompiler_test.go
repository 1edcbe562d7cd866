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
package decompiler_test

import (
	"strings"
	"testing"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/decompiler"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
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

// newGraph builds a two-module graph: the module under test plus one
// dependency, optionally tagged as an NPM package.
func newGraph(t *testing.T, m *module.Module, depSrc, npmName string) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.Add(m)
	dep := newModule(t, depSrc)
	if npmName != "" {
		dep.TagAsNpmModule(npmName)
	}
	g.Add(dep)
	return g
}

func runDecompilers(t *testing.T, g *graph.Graph, m *module.Module) string {
	t.Helper()
	r := router.New()
	for _, d := range decompiler.All() {
		r.RegisterDecompiler(d)
	}
	if err := r.RunDecompilers(g, m); err != nil {
		t.Fatalf("RunDecompilers: %v", err)
	}
	return string(m.ModuleCode.Source())
}

func TestRequireBecomesImportWithNpmName(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){var helper = r(d[0]); helper();},0,[5]);`)
	g := newGraph(t, m, `__d(function(g,r,i,a,m,e,d){},5,[]);`, "@babel/runtime/helpers/toConsumableArray")

	got := runDecompilers(t, g, m)
	want := `import helper from "@babel/runtime/helpers/toConsumableArray";`
	if !strings.Contains(got, want) {
		t.Fatalf("source = %q, want it to contain %q", got, want)
	}
}

func TestRequireBecomesRelativeImportForLocalModule(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){var util = r(d[0]); util();},0,[123]);`)
	g := newGraph(t, m, `__d(function(g,r,i,a,m,e,d){},123,[]);`, "")

	got := runDecompilers(t, g, m)
	want := `import util from "./123";`
	if !strings.Contains(got, want) {
		t.Fatalf("source = %q, want it to contain %q", got, want)
	}
}

func TestImportDefaultAndImportAllBecomeImports(t *testing.T) {
	m := newModule(t, `__d(function(g,r,importDefault,importAll,m,e,d){var React = importDefault(d[0]); var Native = importAll(d[1]);},0,[1,2]);`)
	g := graph.New()
	g.Add(m)
	for _, id := range []string{"1", "2"} {
		dep := newModule(t, `__d(function(g,r,i,a,m,e,d){},`+id+`,[]);`)
		g.Add(dep)
	}

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, `import React from "./1";`) {
		t.Fatalf("source = %q, want default import of ./1", got)
	}
	if !strings.Contains(got, `import * as Native from "./2";`) {
		t.Fatalf("source = %q, want namespace import of ./2", got)
	}
}

func TestBareRequireBecomesSideEffectImport(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){r(d[0]);},0,[7]);`)
	g := newGraph(t, m, `__d(function(g,r,i,a,m,e,d){},7,[]);`, "")

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, `import "./7";`) {
		t.Fatalf("source = %q, want side-effect import of ./7", got)
	}
}

func TestModuleExportsBecomesExportDefault(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports=42;},0,[]);`)
	g := graph.New()
	g.Add(m)

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, "export default 42;") {
		t.Fatalf("source = %q, want export default 42;", got)
	}
}

func TestExportsPropertyBecomesNamedExport(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){function add(x,y){return x+y;} e.add = add; e.version = 3;},0,[]);`)
	g := graph.New()
	g.Add(m)

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, "export { add };") {
		t.Fatalf("source = %q, want export { add };", got)
	}
	if !strings.Contains(got, "export const version = 3;") {
		t.Fatalf("source = %q, want export const version = 3;", got)
	}
}

func TestExportsAliasedIdentifierKeepsExportedName(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){function _i(x,y){return x+y;} e.add = _i;},0,[]);`)
	g := graph.New()
	g.Add(m)

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, "export { _i as add };") {
		t.Fatalf("source = %q, want export { _i as add };", got)
	}
}

func TestHelperUninlineReplacesInlineDeclarationAndCallSites(t *testing.T) {
	src := `__d(function(g,r,i,a,m,e,d){` +
		`function _c(n,t){if(!(n instanceof t)){throw new TypeError("Cannot call a class as a function");}}` +
		`function Point(x){_c(this, Point);this.x=x;}` +
		`m.exports=Point;},0,[]);`
	m := newModule(t, src)
	g := graph.New()
	g.Add(m)

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, `import classCallCheck from "@babel/runtime/helpers/classCallCheck";`) {
		t.Fatalf("source = %q, want helper import", got)
	}
	if !strings.Contains(got, "classCallCheck(this, Point)") {
		t.Fatalf("source = %q, want renamed call site", got)
	}
	if strings.Contains(got, "_c(") {
		t.Fatalf("source = %q, want no remaining minified helper references", got)
	}
}

func TestArraySpreadRecovery(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){var all = [].concat(toConsumableArray(xs), [y]);},0,[]);`)
	g := graph.New()
	g.Add(m)

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, "var all = [...xs, y];") {
		t.Fatalf("source = %q, want [...xs, y]", got)
	}
}

func TestArraySpreadLeavesMixedConcatAlone(t *testing.T) {
	src := `__d(function(g,r,i,a,m,e,d){var all = [].concat(toConsumableArray(xs), maybeArray);},0,[]);`
	m := newModule(t, src)
	g := graph.New()
	g.Add(m)

	got := runDecompilers(t, g, m)
	if !strings.Contains(got, ".concat(") {
		t.Fatalf("source = %q, want concat preserved when an argument's arrayness is unknown", got)
	}
}

func TestNestedRequireInsideFunctionIsLeftAlone(t *testing.T) {
	src := `__d(function(g,r,i,a,m,e,d){function lazy(){var util = r(d[0]); return util;}},0,[9]);`
	m := newModule(t, src)
	g := newGraph(t, m, `__d(function(g,r,i,a,m,e,d){},9,[]);`, "")

	got := runDecompilers(t, g, m)
	if strings.Contains(got, "import") {
		t.Fatalf("source = %q, want no import hoisted out of a nested scope", got)
	}
}

func TestResolveSpecifierOutOfRangeSlot(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){},0,[]);`)
	g := graph.New()
	g.Add(m)

	if _, ok := decompiler.ResolveSpecifier(g, m, 0); ok {
		t.Fatalf("expected no specifier for an empty dependency list")
	}
}
