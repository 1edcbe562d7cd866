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
package ast_test

import (
	"strings"
	"testing"

	"bennypowers.dev/unbundle/ast"
)

func TestParseAndWalkCountsCallExpressions(t *testing.T) {
	tree, err := ast.Parse([]byte(`__d(function(g,r,i,a,m,e,d){m.exports=foo(bar());},0,[]);`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	var calls int
	ast.Walk(tree.Root(), func(p *ast.NodePath) {
		if p.Kind() == "call_expression" {
			calls++
		}
	})

	if calls != 3 {
		t.Fatalf("expected 3 call_expression nodes (__d, foo, bar), got %d", calls)
	}
}

func TestSkipPreventsDescent(t *testing.T) {
	tree, err := ast.Parse([]byte(`outer(inner());`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	var visited []string
	ast.Walk(tree.Root(), func(p *ast.NodePath) {
		if p.Kind() == "identifier" {
			visited = append(visited, p.Text())
		}
		if p.Kind() == "call_expression" {
			p.Skip()
		}
	})

	for _, name := range visited {
		if name == "inner" {
			t.Fatalf("expected Skip on the outer call to prevent descending into inner()")
		}
	}
}

func TestReplaceAndPrint(t *testing.T) {
	tree, err := ast.Parse([]byte(`module.exports = 42;`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.Root()
	ast.Walk(root, func(p *ast.NodePath) {
		if p.Kind() == "assignment_expression" {
			p.Replace("export default 42")
			p.Skip()
		}
	})

	out, err := ast.Print(tree.Source(), ast.Edits(root))
	if err != nil {
		t.Fatalf("Print: %v", err)
	}
	if !strings.Contains(string(out), "export default 42") {
		t.Fatalf("expected rewritten output, got %q", out)
	}
}

func TestPrintRejectsUnparseableEdits(t *testing.T) {
	tree, err := ast.Parse([]byte(`var x = 1;`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.Root()
	ast.Walk(root, func(p *ast.NodePath) {
		if p.Kind() == "number" {
			p.Replace("(")
		}
	})

	if _, err := ast.Print(tree.Source(), ast.Edits(root)); err == nil {
		t.Fatalf("expected ErrParse for an edit that breaks syntax")
	}
}
