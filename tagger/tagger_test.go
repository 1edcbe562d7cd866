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
package tagger_test

import (
	"testing"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
	"bennypowers.dev/unbundle/plugin"
	"bennypowers.dev/unbundle/tagger"
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

// evaluate drives a whole-module Tagger once, matching the router's own
// whole-module invocation (a single Evaluate call with a nil Path).
func evaluate(tg plugin.Tagger, g *graph.Graph, m *module.Module) bool {
	return tg.Evaluate(&plugin.Context{Module: m, Graph: g})
}

func TestBabelHelperFingerprintTaggerRecognizesClassCallCheck(t *testing.T) {
	src := `__d(function(g,r,i,a,m,e,d){function _(n,t){if(!(n instanceof t)){throw new TypeError("Cannot call a class as a function");}}m.exports=_;},0,[]);`
	m := newModule(t, src)
	tg := tagger.NewBabelHelperFingerprintTagger()

	if !evaluate(tg, graph.New(), m) {
		t.Fatalf("expected fingerprint match")
	}
	if !m.IsNpmModule || m.NpmModuleName != "@babel/runtime/helpers/classCallCheck" {
		t.Fatalf("module not tagged as classCallCheck helper: %+v", m)
	}
	if !m.Ignored {
		t.Fatalf("expected NPM-tagged module to be ignored")
	}
	// Idempotent: a second run on an already-tagged module is a no-op.
	if evaluate(tg, graph.New(), m) {
		t.Fatalf("expected no further change on an already-tagged module")
	}
}

func TestNpmPackageNameTaggerMatchesKnownRoots(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports={};},0,[],"react-native/Libraries/Text");`)
	tg := tagger.NewNpmPackageNameTagger()

	if !evaluate(tg, graph.New(), m) {
		t.Fatalf("expected moduleName match")
	}
	if m.NpmModuleName != "react-native" {
		t.Fatalf("NpmModuleName = %q, want react-native", m.NpmModuleName)
	}
}

func TestNpmPackageNameTaggerIgnoresUnknownNames(t *testing.T) {
	m := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports={};},0,[],"app/Components/Button");`)
	tg := tagger.NewNpmPackageNameTagger()

	if evaluate(tg, graph.New(), m) {
		t.Fatalf("expected no match for an application module name")
	}
}

func TestIgnoreRuntimeGlueTaggerMatchesPolyfillsAndBootstrap(t *testing.T) {
	for _, name := range []string{"polyfills/console.js", "InitializeCore", "babelHelpers"} {
		m := newModule(t, `__d(function(g,r,i,a,m,e,d){},0,[],"`+name+`");`)
		tg := tagger.NewIgnoreRuntimeGlueTagger()
		if !evaluate(tg, graph.New(), m) {
			t.Fatalf("expected %q to match runtime-glue pattern", name)
		}
		if !m.Ignored {
			t.Fatalf("expected %q to be ignored", name)
		}
	}
}

// evaluateStructural drives a structural Tagger over every node of m's
// ModuleCode, the way the router's per-node dispatch would, and reports
// whether any invocation changed tagging state.
func evaluateStructural(tg plugin.Tagger, g *graph.Graph, m *module.Module) bool {
	kinds := make(map[string]bool)
	for _, k := range tg.Descriptor().NodeKinds {
		kinds[k] = true
	}
	changed := false
	ast.Walk(m.ModuleCode.Root(), func(p *ast.NodePath) {
		if !kinds[p.Kind()] {
			return
		}
		if tg.Evaluate(&plugin.Context{Module: m, Graph: g, Path: p}) {
			changed = true
		}
	})
	return changed
}

func TestReactComponentTaggerRecognizesCreateElementThroughImportDefault(t *testing.T) {
	reactDep := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports={};},1,[],"react");`)
	reactDep.TagAsNpmModule("react")

	g := graph.New()
	g.Add(reactDep)

	src := `__d(function(g,r,importDefault,a,m,e,d){
		var React = importDefault(d[0]);
		function Widget(){ return React.createElement("div", null); }
		m.exports = Widget;
	},0,[1]);`
	m := newModule(t, src)

	tg := tagger.NewReactComponentTagger()
	if !evaluateStructural(tg, g, m) {
		t.Fatalf("expected structural React match")
	}
	if !m.HasTag("react-component") {
		t.Fatalf("expected react-component tag")
	}
}

func TestReactComponentTaggerRecognizesAutomaticJsxRuntime(t *testing.T) {
	src := `__d(function(g,r,i,a,m,e,d){
		function Widget(){ return jsx("div", {}); }
		m.exports = Widget;
	},0,[]);`
	m := newModule(t, src)

	tg := tagger.NewReactComponentTagger()
	if !evaluateStructural(tg, graph.New(), m) {
		t.Fatalf("expected automatic JSX runtime match")
	}
}

func TestReactComponentTaggerIgnoresPlainCreateElementNotBoundToReact(t *testing.T) {
	src := `__d(function(g,r,i,a,m,e,d){
		var Other = {};
		function Widget(){ return Other.createElement("div", null); }
		m.exports = Widget;
	},0,[]);`
	m := newModule(t, src)

	tg := tagger.NewReactComponentTagger()
	if evaluateStructural(tg, graph.New(), m) {
		t.Fatalf("expected no match: Other is not bound to the react dependency")
	}
}

func TestReactComponentTaggerRecognizesClassExtendsReactComponent(t *testing.T) {
	reactDep := newModule(t, `__d(function(g,r,i,a,m,e,d){m.exports={};},1,[],"react");`)
	reactDep.TagAsNpmModule("react")

	g := graph.New()
	g.Add(reactDep)

	src := `__d(function(g,r,i,importAll,m,e,d){
		var React = importAll(d[0]);
		class Widget extends React.Component {}
		m.exports = Widget;
	},0,[1]);`
	m := newModule(t, src)

	tg := tagger.NewReactComponentTagger()
	if !evaluateStructural(tg, g, m) {
		t.Fatalf("expected class-extends-Component match")
	}
}

func TestAllReturnsCatalogInPriorityOrder(t *testing.T) {
	all := tagger.All()
	if len(all) != 4 {
		t.Fatalf("len(All()) = %d, want 4", len(all))
	}
	prev := -1
	for _, tg := range all {
		p := tg.Descriptor().Priority
		if p < prev {
			t.Fatalf("tagger catalog not in priority order: %d before %d", prev, p)
		}
		prev = p
	}
}
