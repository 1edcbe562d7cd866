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
	"bennypowers.dev/unbundle/plugin"
)

// shortCircuitToIfEditor turns `cond && stmt();` at statement position into
// `if (cond) stmt();`.
type shortCircuitToIfEditor struct{}

// NewShortCircuitToIfEditor returns the Editor that rewrites a statement-
// position `&&` guard into an if statement.
func NewShortCircuitToIfEditor() plugin.Editor { return shortCircuitToIfEditor{} }

func (shortCircuitToIfEditor) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "short-circuit-to-if",
		Pass:      plugin.EditorPass,
		Priority:  1,
		NodeKinds: []string{"expression_statement"},
	}
}

func (shortCircuitToIfEditor) Evaluate(ctx *plugin.Context) {
	stmt := ctx.Path
	if stmt.NamedChildCount() == 0 {
		return
	}
	expr := stmt.NamedChild(0)
	if expr.Kind() != "binary_expression" {
		return
	}
	op := expr.ChildByFieldName("operator")
	if op == nil || op.Text() != "&&" {
		return
	}
	cond := expr.ChildByFieldName("left")
	body := expr.ChildByFieldName("right")
	if cond == nil || body == nil {
		return
	}
	stmt.Replace("if (" + cond.Text() + ") " + body.Text() + ";")
}
