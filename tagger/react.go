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
package tagger

import (
	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/plugin"
)

// reactComponentTagger is a structural, dependency-aware tagger: it finds
// the local identifier a module bound to its "react" import, then looks for
// Metro/react-native-babel-preset-lowered JSX call shapes
// (React.createElement(...), jsx/jsxs/jsxDEV(...)) or a class extending
// React.Component/PureComponent through that identifier.
type reactComponentTagger struct{}

// NewReactComponentTagger returns the structural React-component Tagger.
func NewReactComponentTagger() plugin.Tagger { return reactComponentTagger{} }

func (reactComponentTagger) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "react-component",
		Pass:      plugin.TaggerPass,
		Priority:  5,
		NodeKinds: []string{"call_expression", "class_declaration"},
	}
}

var jsxRuntimeCallees = map[string]bool{"jsx": true, "jsxs": true, "jsxDEV": true}

func (t reactComponentTagger) Evaluate(ctx *plugin.Context) bool {
	m := ctx.Module
	if m.HasTag("react-component") {
		return false
	}

	switch ctx.Path.Kind() {
	case "call_expression":
		fn := ctx.Path.ChildByFieldName("function")
		if fn == nil {
			return false
		}
		if fn.Kind() == "identifier" && jsxRuntimeCallees[fn.Text()] {
			m.Tag("react-component", nil)
			return true
		}
		if fn.Kind() != "member_expression" {
			return false
		}
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || prop.Text() != "createElement" {
			return false
		}
		reactIdent := t.boundReactIdentifier(ctx)
		if reactIdent == "" || obj.Text() != reactIdent {
			return false
		}
		m.Tag("react-component", nil)
		return true

	case "class_declaration":
		super := ctx.Path.ChildByFieldName("superclass")
		// class_declaration has no superclass field in the TSX grammar: the
		// extended expression sits in class_heritage > extends_clause ("value").
		for i := uint(0); super == nil && i < ctx.Path.NamedChildCount(); i++ {
			heritage := ctx.Path.NamedChild(i)
			if heritage.Kind() != "class_heritage" || heritage.NamedChildCount() == 0 {
				continue
			}
			super = heritage.NamedChild(0)
			if super.Kind() == "extends_clause" {
				super = super.ChildByFieldName("value")
			} else if super.Kind() == "implements_clause" {
				super = nil
			}
		}
		if super == nil {
			return false
		}
		reactIdent := t.boundReactIdentifier(ctx)
		if reactIdent == "" {
			return false
		}
		text := super.Text()
		if text == reactIdent+".Component" || text == reactIdent+".PureComponent" {
			m.Tag("react-component", nil)
			return true
		}
	}
	return false
}

// boundReactIdentifier finds the local name a module bound to an
// importDefault/importAll call whose dependency is tagged as the "react"
// NPM package, consulting the module graph (spec.md §4.6's dependency-aware
// tagger contract).
func (t reactComponentTagger) boundReactIdentifier(ctx *plugin.Context) string {
	var ident string
	ast.Walk(ctx.Module.ModuleCode.Root(), func(p *ast.NodePath) {
		if ident != "" {
			return
		}
		if idx, ok := ctx.Module.IsImportDefaultCall(p); ok && t.isReactDependency(ctx, idx) {
			ident = declaredIdentifier(p)
			return
		}
		if idx, ok := ctx.Module.IsImportAllCall(p); ok && t.isReactDependency(ctx, idx) {
			ident = declaredIdentifier(p)
		}
	})
	return ident
}

func (reactComponentTagger) isReactDependency(ctx *plugin.Context, depIndex int) bool {
	deps := ctx.Module.Dependencies
	if depIndex < 0 || depIndex >= len(deps) || deps[depIndex] == nil {
		return false
	}
	dep, ok := ctx.Graph.Get(*deps[depIndex])
	if !ok {
		return false
	}
	return dep.IsNpmModule && dep.NpmModuleName == "react"
}

// declaredIdentifier returns the variable name a call expression's result
// was assigned to, e.g. the X in `var X = importDefault(dependencyMap[3])`.
func declaredIdentifier(call *ast.NodePath) string {
	parent := call.Parent()
	if parent == nil || parent.Kind() != "variable_declarator" {
		return ""
	}
	name := parent.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return ""
	}
	return name.Text()
}
