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

// Package decompiler holds the structural rewrites (C8) that recover
// ES-module syntax from the Metro calling convention: require/importDefault/
// importAll calls become import declarations, module.exports assignments
// become export declarations, inlined Babel helpers are replaced by imports
// of their canonical package, and helper-mediated array spreads are restored
// to spread syntax. Each rewrite is a pure function of the matched subtree.
package decompiler

import (
	"fmt"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
	"bennypowers.dev/unbundle/plugin"
)

// ResolveSpecifier computes the import specifier for the dependency at slot
// index of m: the NPM package name when the dependency module is tagged NPM,
// otherwise a relative path derived from its moduleId (spec.md §4.7.1).
func ResolveSpecifier(g *graph.Graph, m *module.Module, index int) (string, bool) {
	if index < 0 || index >= len(m.Dependencies) || m.Dependencies[index] == nil {
		return "", false
	}
	id := *m.Dependencies[index]
	if dep, ok := g.Get(id); ok && dep.IsNpmModule {
		return dep.NpmModuleName, true
	}
	return fmt.Sprintf("./%d", id), true
}

// requireToImportDecompiler rewrites top-level declarations of the three
// Metro import shapes:
//
//	var X = require(dependencyMap[i])       -> import X from '...'
//	var X = importDefault(dependencyMap[i]) -> import X from '...'
//	var X = importAll(dependencyMap[i])     -> import * as X from '...'
//
// and a bare require(dependencyMap[i]); statement into a side-effect import.
type requireToImportDecompiler struct{}

// NewRequireToImportDecompiler returns the Decompiler that restores import
// declarations from the Metro require protocol.
func NewRequireToImportDecompiler() plugin.Decompiler { return requireToImportDecompiler{} }

func (requireToImportDecompiler) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "require-to-import",
		Pass:      plugin.DecompilerPass,
		Priority:  0,
		NodeKinds: []string{"variable_declaration", "lexical_declaration", "expression_statement"},
	}
}

func (requireToImportDecompiler) Evaluate(ctx *plugin.Context) bool {
	stmt := ctx.Path
	if stmt.Parent() == nil || stmt.Parent().Kind() != "program" {
		return false
	}

	if stmt.Kind() == "expression_statement" {
		return rewriteSideEffectRequire(ctx, stmt)
	}

	if stmt.NamedChildCount() != 1 {
		return false
	}
	declarator := stmt.NamedChild(0)
	if declarator.Kind() != "variable_declarator" {
		return false
	}
	name := declarator.ChildByFieldName("name")
	value := declarator.ChildByFieldName("value")
	if name == nil || name.Kind() != "identifier" || value == nil {
		return false
	}

	m := ctx.Module
	if idx, ok := m.IsRequireCall(value); ok {
		return replaceWithImport(ctx, stmt, "import "+name.Text()+" from %q;", idx)
	}
	if idx, ok := m.IsImportDefaultCall(value); ok {
		return replaceWithImport(ctx, stmt, "import "+name.Text()+" from %q;", idx)
	}
	if idx, ok := m.IsImportAllCall(value); ok {
		return replaceWithImport(ctx, stmt, "import * as "+name.Text()+" from %q;", idx)
	}
	return false
}

func rewriteSideEffectRequire(ctx *plugin.Context, stmt *ast.NodePath) bool {
	if stmt.NamedChildCount() != 1 {
		return false
	}
	expr := stmt.NamedChild(0)
	idx, ok := ctx.Module.IsRequireCall(expr)
	if !ok {
		return false
	}
	return replaceWithImport(ctx, stmt, "import %q;", idx)
}

func replaceWithImport(ctx *plugin.Context, stmt *ast.NodePath, format string, index int) bool {
	specifier, ok := ResolveSpecifier(ctx.Graph, ctx.Module, index)
	if !ok {
		return false
	}
	stmt.Replace(fmt.Sprintf(format, specifier))
	stmt.Skip()
	return true
}
