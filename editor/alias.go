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
package editor

import (
	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/plugin"
)

// trivialAliasInlineEditor removes `var x = y;` when x is never reassigned,
// replacing the single other reference to x with y. This is deliberately
// conservative: it only fires when the declarator's value is itself a bare
// identifier (a minifier-introduced alias, not a computed expression) and the
// declaration's enclosing statement_block contains exactly one other
// occurrence of the name. Closure capture is not checked separately: a
// reference inside a nested function counts as that one occurrence.
type trivialAliasInlineEditor struct{}

// NewTrivialAliasInlineEditor returns the Editor that inlines single-use
// identifier aliases.
func NewTrivialAliasInlineEditor() plugin.Editor { return trivialAliasInlineEditor{} }

func (trivialAliasInlineEditor) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "trivial-alias-inline",
		Pass:      plugin.EditorPass,
		Priority:  3,
		NodeKinds: []string{"variable_declarator"},
	}
}

func (trivialAliasInlineEditor) Evaluate(ctx *plugin.Context) {
	decl := ctx.Path
	name := decl.ChildByFieldName("name")
	value := decl.ChildByFieldName("value")
	if name == nil || name.Kind() != "identifier" || value == nil || value.Kind() != "identifier" {
		return
	}
	alias := name.Text()
	target := value.Text()
	if alias == target {
		return
	}

	scope := enclosingBlock(decl)
	if scope == nil {
		return
	}

	var uses []*ast.NodePath
	var reassigned bool
	ast.Walk(scope, func(p *ast.NodePath) {
		if p.StartByte() == name.StartByte() && p.EndByte() == name.EndByte() {
			return
		}
		if p.Kind() == "identifier" && p.Text() == alias {
			uses = append(uses, p)
		}
		if p.Kind() == "assignment_expression" {
			if left := p.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" && left.Text() == alias {
				reassigned = true
			}
		}
	})
	if reassigned || len(uses) != 1 {
		return
	}

	uses[0].Replace(target)
	removeDeclarator(decl)
}

// enclosingBlock walks up from a variable_declarator to the nearest
// statement_block or program ancestor, the scope this editor searches for
// uses of the declared name.
func enclosingBlock(p *ast.NodePath) *ast.NodePath {
	for cur := p.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Kind() == "statement_block" || cur.Kind() == "program" {
			return cur
		}
	}
	return nil
}

// removeDeclarator deletes a single declarator from its variable_declaration,
// or the whole declaration statement if it was the only one. A declarator in
// a multi-declarator statement takes its separator comma with it: removing
// only the declarator's own span would leave `var a = 1, , c = 3;`, which
// does not parse.
func removeDeclarator(decl *ast.NodePath) {
	declaration := decl.Parent()
	if declaration == nil || declaration.Kind() != "variable_declaration" {
		return
	}
	if declaration.NamedChildCount() <= 1 {
		declaration.Remove()
		return
	}
	decl.Remove()
	if comma := adjacentComma(declaration, decl); comma != nil {
		comma.Remove()
	}
}

// adjacentComma returns the separator comma token following decl among
// declaration's children, or the one preceding it when decl is the last
// declarator.
func adjacentComma(declaration, decl *ast.NodePath) *ast.NodePath {
	n := declaration.ChildCount()
	index := ^uint(0)
	for i := uint(0); i < n; i++ {
		child := declaration.Child(i)
		if child.StartByte() == decl.StartByte() && child.EndByte() == decl.EndByte() {
			index = i
			break
		}
	}
	if index == ^uint(0) {
		return nil
	}
	for i := index + 1; i < n; i++ {
		if child := declaration.Child(i); child.Kind() == "," {
			return child
		}
	}
	for i := index; i > 0; i-- {
		if child := declaration.Child(i - 1); child.Kind() == "," {
			return child
		}
	}
	return nil
}
