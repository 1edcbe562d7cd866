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
	"bennypowers.dev/unbundle/plugin"
)

// exportsDecompiler rewrites top-level CommonJS export assignments:
//
//	module.exports = E -> export default E
//	exports.X = E      -> export const X = E  (E not an identifier)
//	exports.X = X      -> export { X }
//	exports.X = Y      -> export { Y as X }   (Y an identifier)
type exportsDecompiler struct{}

// NewExportsDecompiler returns the Decompiler that restores export
// declarations from module.exports / exports.X assignments.
func NewExportsDecompiler() plugin.Decompiler { return exportsDecompiler{} }

func (exportsDecompiler) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "exports-to-export",
		Pass:      plugin.DecompilerPass,
		Priority:  1,
		NodeKinds: []string{"expression_statement"},
	}
}

func (exportsDecompiler) Evaluate(ctx *plugin.Context) bool {
	stmt := ctx.Path
	if stmt.Parent() == nil || stmt.Parent().Kind() != "program" {
		return false
	}
	if stmt.NamedChildCount() != 1 {
		return false
	}
	expr := stmt.NamedChild(0)
	m := ctx.Module

	if rhs, ok := m.IsModuleExportsAssignment(expr); ok && rhs != nil {
		stmt.Replace("export default " + rhs.Text() + ";")
		stmt.Skip()
		return true
	}

	if name, rhs, ok := m.IsExportsPropertyAssignment(expr); ok && rhs != nil {
		if rhs.Kind() == "identifier" {
			if rhs.Text() == name {
				stmt.Replace("export { " + name + " };")
			} else {
				stmt.Replace("export { " + rhs.Text() + " as " + name + " };")
			}
		} else {
			stmt.Replace("export const " + name + " = " + rhs.Text() + ";")
		}
		stmt.Skip()
		return true
	}
	return false
}
