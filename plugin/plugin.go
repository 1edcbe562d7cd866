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

// Package plugin declares the three plugin families (C4) the router
// dispatches to: taggers, editors and decompilers. Rather than the
// originating class hierarchy, each family is a small capability interface
// per spec.md §9's own design note.
package plugin

import (
	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
)

// Pass identifies which of the three plugin families a Descriptor belongs
// to.
type Pass int

const (
	TaggerPass Pass = iota
	EditorPass
	DecompilerPass
)

func (p Pass) String() string {
	switch p {
	case TaggerPass:
		return "tagger"
	case EditorPass:
		return "editor"
	case DecompilerPass:
		return "decompiler"
	default:
		return "unknown"
	}
}

// WholeModule is the sentinel NodeKinds entry meaning a plugin runs once per
// module rather than once per matching AST node.
const WholeModule = "*whole-module*"

// Descriptor is the declarative part of a plugin: its name (for performance
// reporting), pass, priority (lower runs first within a pass) and the set of
// AST node kinds it is interested in.
type Descriptor struct {
	Name      string
	Pass      Pass
	Priority  int
	NodeKinds []string
}

// IsWholeModule reports whether d runs once per module instead of per node.
func (d Descriptor) IsWholeModule() bool {
	return len(d.NodeKinds) == 1 && d.NodeKinds[0] == WholeModule
}

// Context is passed to every plugin hook invocation. Path is nil for
// whole-module plugins. Plugins may read Graph to consult sibling modules'
// tags (dependency-aware taggers, cross-module Babel-helper un-inlining) but
// must never mutate anything but Module.
type Context struct {
	Module *module.Module
	Graph  *graph.Graph
	Path   *ast.NodePath
}

// Tagger classifies a module: it may call Module.Tag, Module.TagAsNpmModule
// or Module.Ignore. Evaluate returns whether it changed any tagging state,
// which the router uses to decide whether to re-run the pass to a fixed
// point.
type Tagger interface {
	Descriptor() Descriptor
	Evaluate(ctx *Context) bool
}

// Editor performs a local, shape-preserving rewrite. Editors run once per
// pass (no fixed-point rerun) per spec.md §4.5.
type Editor interface {
	Descriptor() Descriptor
	Evaluate(ctx *Context)
}

// Decompiler performs a larger structural rewrite recovering ES-module
// syntax from the Metro calling convention. Evaluate returns whether it
// mutated the AST, driving the Decompiler pass's fixed-point rerun.
type Decompiler interface {
	Descriptor() Descriptor
	Evaluate(ctx *Context) bool
}
