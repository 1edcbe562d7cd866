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
)

// arraySpreadDecompiler restores spread syntax from the lowered
// toConsumableArray protocol:
//
//	[].concat(toConsumableArray(x), [y]) -> [...x, y]
//
// The rewrite only fires when every concat argument is either a
// toConsumableArray call or an array literal, since concat treats other
// values differently (appended, not spliced) and the static shape cannot
// tell which.
type arraySpreadDecompiler struct{}

// NewArraySpreadDecompiler returns the Decompiler that recovers array
// spreads from helper-mediated concat chains.
func NewArraySpreadDecompiler() plugin.Decompiler { return arraySpreadDecompiler{} }

func (arraySpreadDecompiler) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "array-spread",
		Pass:      plugin.DecompilerPass,
		Priority:  3,
		NodeKinds: []string{"call_expression"},
	}
}

func (arraySpreadDecompiler) Evaluate(ctx *plugin.Context) bool {
	call := ctx.Path
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "member_expression" {
		return false
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil || prop.Text() != "concat" || obj.Kind() != "array" {
		return false
	}
	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.NamedChildCount() == 0 {
		return false
	}

	var elements []string
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		elements = append(elements, obj.NamedChild(i).Text())
	}
	for i := uint(0); i < argsNode.NamedChildCount(); i++ {
		arg := argsNode.NamedChild(i)
		switch {
		case isSpreadHelperCall(arg):
			elements = append(elements, "..."+arg.ChildByFieldName("arguments").NamedChild(0).Text())
		case arg.Kind() == "array":
			for j := uint(0); j < arg.NamedChildCount(); j++ {
				elements = append(elements, arg.NamedChild(j).Text())
			}
		default:
			return false
		}
	}

	call.Replace("[" + strings.Join(elements, ", ") + "]")
	call.Skip()
	return true
}

// isSpreadHelperCall reports whether node is a unary call to an identifier
// bound to the toConsumableArray helper -- either the canonical name after
// un-inlining, or a minified alias ending in it.
func isSpreadHelperCall(node *ast.NodePath) bool {
	if node == nil || node.Kind() != "call_expression" {
		return false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return false
	}
	if !strings.HasSuffix(fn.Text(), "toConsumableArray") {
		return false
	}
	args := node.ChildByFieldName("arguments")
	return args != nil && args.NamedChildCount() == 1
}
