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

// Package editor holds the local, shape-preserving clean-ups (C7): small
// rewrites that improve readability without recovering any Metro-specific
// semantics. Each is a pure function of the matched subtree -- if the shape
// doesn't match, the subtree is left untouched.
package editor

import (
	"strings"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/plugin"
)

// sequenceSplitEditor turns `a(), b(), c;` at statement position into three
// separate statements.
type sequenceSplitEditor struct{}

// NewSequenceSplitEditor returns the Editor that splits a statement-position
// sequence expression into one statement per operand.
func NewSequenceSplitEditor() plugin.Editor { return sequenceSplitEditor{} }

func (sequenceSplitEditor) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "sequence-split",
		Pass:      plugin.EditorPass,
		Priority:  0,
		NodeKinds: []string{"expression_statement"},
	}
}

func (sequenceSplitEditor) Evaluate(ctx *plugin.Context) {
	seq := sequenceExpression(ctx.Path)
	if seq == nil {
		return
	}
	operands := sequenceOperands(seq)
	if len(operands) < 2 {
		return
	}
	var b strings.Builder
	for _, op := range operands {
		b.WriteString(op.Text())
		b.WriteString(";")
	}
	ctx.Path.Replace(b.String())
}

// sequenceExpression returns the sequence_expression directly inside an
// expression_statement, unwrapping a single layer of parentheses if present.
func sequenceExpression(stmt *ast.NodePath) *ast.NodePath {
	if stmt.NamedChildCount() == 0 {
		return nil
	}
	expr := stmt.NamedChild(0)
	if expr.Kind() == "parenthesized_expression" && expr.NamedChildCount() == 1 {
		expr = expr.NamedChild(0)
	}
	if expr.Kind() != "sequence_expression" {
		return nil
	}
	return expr
}

// sequenceOperands flattens a left-associative chain of sequence_expression
// nodes (`a, b, c` parses as `(a, b), c`) into its operands in source order.
func sequenceOperands(seq *ast.NodePath) []*ast.NodePath {
	left := seq.ChildByFieldName("left")
	right := seq.ChildByFieldName("right")
	if left == nil || right == nil {
		return nil
	}
	var out []*ast.NodePath
	if left.Kind() == "sequence_expression" {
		out = append(out, sequenceOperands(left)...)
	} else {
		out = append(out, left)
	}
	out = append(out, right)
	return out
}
