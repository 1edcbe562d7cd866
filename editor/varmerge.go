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

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/plugin"
)

// consecutiveVarMergeEditor merges a run of adjacent `var` declarations
// (a minifier artifact from hoisting) into one declaration statement.
type consecutiveVarMergeEditor struct{}

// NewConsecutiveVarMergeEditor returns the Editor that merges adjacent `var`
// statements.
func NewConsecutiveVarMergeEditor() plugin.Editor { return consecutiveVarMergeEditor{} }

func (consecutiveVarMergeEditor) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "consecutive-var-merge",
		Pass:      plugin.EditorPass,
		Priority:  4,
		NodeKinds: []string{"statement_block", "program"},
	}
}

func (consecutiveVarMergeEditor) Evaluate(ctx *plugin.Context) {
	block := ctx.Path
	var run []*ast.NodePath

	flush := func() {
		if len(run) < 2 {
			run = nil
			return
		}
		var declarators []string
		for _, stmt := range run {
			for i := uint(0); i < stmt.NamedChildCount(); i++ {
				declarators = append(declarators, stmt.NamedChild(i).Text())
			}
		}
		merged := "var " + strings.Join(declarators, ", ") + ";"
		run[0].Replace(merged)
		for _, stmt := range run[1:] {
			stmt.Remove()
		}
		run = nil
	}

	n := block.NamedChildCount()
	for i := uint(0); i < n; i++ {
		stmt := block.NamedChild(i)
		if isVarDeclarationStatement(stmt) {
			run = append(run, stmt)
			continue
		}
		flush()
	}
	flush()
}

func isVarDeclarationStatement(stmt *ast.NodePath) bool {
	return stmt.Kind() == "variable_declaration" && stmt.NamedChildCount() > 0
}
