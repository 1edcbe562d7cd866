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
package decompiler

import (
	"strings"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/plugin"
	"bennypowers.dev/unbundle/tagger"
)

// helperUninlineDecompiler recognizes a Babel runtime helper that the
// bundler copied inline into a consuming module as a function declaration,
// replaces the declaration with an import of the helper's canonical package,
// and renames every call site from the minified local name to the canonical
// helper name (spec.md §4.7.4).
type helperUninlineDecompiler struct{}

// NewHelperUninlineDecompiler returns the Decompiler that un-inlines Babel
// runtime helpers.
func NewHelperUninlineDecompiler() plugin.Decompiler { return helperUninlineDecompiler{} }

func (helperUninlineDecompiler) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "helper-uninline",
		Pass:      plugin.DecompilerPass,
		Priority:  2,
		NodeKinds: []string{"function_declaration"},
	}
}

// HelperLocalName returns the last path segment of a Babel helper package
// path, which is the name the helper is imported under once un-inlined.
func HelperLocalName(pkg string) string {
	if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
		return pkg[i+1:]
	}
	return pkg
}

func (helperUninlineDecompiler) Evaluate(ctx *plugin.Context) bool {
	decl := ctx.Path
	pkg, ok := tagger.MatchBabelHelper(decl.Text())
	if !ok {
		return false
	}
	name := decl.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return false
	}
	minified := name.Text()
	canonical := HelperLocalName(pkg)

	decl.Replace("import " + canonical + " from \"" + pkg + "\";")
	decl.Skip()

	if minified == canonical {
		return true
	}

	// Rename call sites everywhere outside the declaration's own span; the
	// declaration body's internal references disappear with the Replace above.
	root := decl
	for root.Parent() != nil {
		root = root.Parent()
	}
	declStart, declEnd := decl.StartByte(), decl.EndByte()
	ast.Walk(root, func(p *ast.NodePath) {
		if p.Kind() != "identifier" || p.Text() != minified {
			return
		}
		if p.StartByte() >= declStart && p.EndByte() <= declEnd {
			return
		}
		p.Replace(canonical)
	})
	return true
}
