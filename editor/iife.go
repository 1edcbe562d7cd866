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
	"strings"

	"bennypowers.dev/unbundle/plugin"
)

// iifeUnwrapEditor rewrites a zero-argument, no-capture immediately-invoked
// function expression used as a statement, `(function(){ BODY }());`, into
// its body's statements inline. Only the argument-less call shape is
// touched: an IIFE that closes over call-site arguments is left alone since
// inlining it would require substitution this editor does not perform.
type iifeUnwrapEditor struct{}

// NewIifeUnwrapEditor returns the Editor that inlines argument-less IIFEs
// used at statement position.
func NewIifeUnwrapEditor() plugin.Editor { return iifeUnwrapEditor{} }

func (iifeUnwrapEditor) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "iife-unwrap",
		Pass:      plugin.EditorPass,
		Priority:  2,
		NodeKinds: []string{"expression_statement"},
	}
}

func (iifeUnwrapEditor) Evaluate(ctx *plugin.Context) {
	stmt := ctx.Path
	if stmt.NamedChildCount() == 0 {
		return
	}
	call := stmt.NamedChild(0)
	if call.Kind() == "parenthesized_expression" && call.NamedChildCount() == 1 {
		call = call.NamedChild(0)
	}
	if call.Kind() != "call_expression" {
		return
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	if fn.Kind() == "parenthesized_expression" && fn.NamedChildCount() == 1 {
		fn = fn.NamedChild(0)
	}
	if fn.Kind() != "function_expression" && fn.Kind() != "function" {
		return
	}
	if fn.ChildByFieldName("name") != nil {
		return
	}
	params := fn.ChildByFieldName("parameters")
	if params != nil && params.NamedChildCount() != 0 {
		return
	}
	args := call.ChildByFieldName("arguments")
	if args != nil && args.NamedChildCount() != 0 {
		return
	}
	body := fn.ChildByFieldName("body")
	if body == nil || body.Kind() != "statement_block" {
		return
	}

	var statements []string
	for i := uint(0); i < body.NamedChildCount(); i++ {
		statements = append(statements, body.NamedChild(i).Text())
	}
	stmt.Replace(strings.Join(statements, "\n"))
}
