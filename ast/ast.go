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

// Package ast provides the uniform parse/traverse/print facade (C1) that the
// rest of the decompiler builds on. It wraps tree-sitter's read-only parse
// tree with a mutable NodePath: Skip, Replace and Remove are recorded as
// byte-range text edits and spliced over the original source at Print time,
// since tree-sitter itself never mutates its tree in place.
package ast

import (
	"errors"
	"fmt"
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrParse is returned when source text fails to parse or, after edits are
// applied, fails the post-edit esbuild syntax gate. It realizes the
// ParseError error kind.
var ErrParse = errors.New("ast: source does not parse")

// tsxLanguage accepts both plain JS and TSX; Metro bundles are plain JS, and
// TSX is a strict syntactic superset, so one grammar covers both without a
// second parser instance.
var tsxLanguage = ts.NewLanguage(tstypescript.LanguageTSX())

// Edit is a single byte-range replacement collected by a NodePath mutation.
type Edit struct {
	Start, End  uint
	Replacement string
}

// editSet is shared by every NodePath derived from the same traversal so
// that mutations recorded anywhere in the tree land in one place.
type editSet struct {
	edits []Edit
}

func (s *editSet) record(start, end uint, replacement string) {
	s.edits = append(s.edits, Edit{Start: start, End: end, Replacement: replacement})
}

// Tree is a parsed program together with the source bytes it was parsed
// from. The bundle is parsed once into one Tree, but each module's working
// code is a separate Tree reparsed from its factory body, so a module's byte
// offsets are relative to that body, not to the bundle.
type Tree struct {
	source []byte
	root   *ts.Node
	tsTree *ts.Tree
}

// Parse parses source as JavaScript/TSX. It never mutates source.
func Parse(source []byte) (*Tree, error) {
	parser := ts.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(tsxLanguage); err != nil {
		return nil, fmt.Errorf("ast: set language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, ErrParse
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, ErrParse
	}

	return &Tree{source: source, root: root, tsTree: tree}, nil
}

// Close releases the underlying tree-sitter tree. Safe to call on a nil Tree.
func (t *Tree) Close() {
	if t != nil && t.tsTree != nil {
		t.tsTree.Close()
	}
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.source }

// Root returns a fresh NodePath positioned at the program root, with its own
// private edit set (callers collect and apply edits per pass, see Print).
func (t *Tree) Root() *NodePath {
	return &NodePath{node: t.root, source: t.source, edits: &editSet{}}
}

// NodePath is a mutable cursor into the read-only parse tree: it exposes
// Parent/Child navigation plus Skip/Replace/Remove mutation, matching the
// contract spec.md §4.1 asks of the AST facade.
type NodePath struct {
	node   *ts.Node
	source []byte
	parent *NodePath
	edits  *editSet
	skip   bool
}

// Kind returns the tree-sitter grammar node-kind name, e.g. "call_expression".
func (p *NodePath) Kind() string { return p.node.Kind() }

// Node exposes the underlying tree-sitter node for plugins that need
// operations this facade does not wrap directly (e.g. ChildByFieldName).
func (p *NodePath) Node() *ts.Node { return p.node }

// Text returns the node's source text, unaffected by any pending edits.
func (p *NodePath) Text() string { return p.node.Utf8Text(p.source) }

// StartByte and EndByte report the node's byte range in the original source.
func (p *NodePath) StartByte() uint { return p.node.StartByte() }
func (p *NodePath) EndByte() uint   { return p.node.EndByte() }

// Parent returns the enclosing NodePath, or nil at the program root.
func (p *NodePath) Parent() *NodePath { return p.parent }

// ChildCount returns the number of direct children (named and anonymous).
func (p *NodePath) ChildCount() uint { return p.node.ChildCount() }

// Child returns the i'th direct child as a NodePath sharing this path's edit
// set, or nil if i is out of range.
func (p *NodePath) Child(i uint) *NodePath {
	child := p.node.Child(i)
	if child == nil {
		return nil
	}
	return &NodePath{node: child, source: p.source, parent: p, edits: p.edits}
}

// NamedChildCount returns the number of named (non-punctuation) children.
func (p *NodePath) NamedChildCount() uint { return p.node.NamedChildCount() }

// NamedChild returns the i'th named child, skipping anonymous tokens such as
// commas, parens and braces -- the shape callers usually want when reading
// argument lists or array elements.
func (p *NodePath) NamedChild(i uint) *NodePath {
	child := p.node.NamedChild(i)
	if child == nil {
		return nil
	}
	return &NodePath{node: child, source: p.source, parent: p, edits: p.edits}
}

// ChildByFieldName returns the named field child (e.g. "function", "left",
// "body"), or nil if the field is absent on this node.
func (p *NodePath) ChildByFieldName(name string) *NodePath {
	child := p.node.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return &NodePath{node: child, source: p.source, parent: p, edits: p.edits}
}

// Skip marks this subtree as not to be descended into during the current
// traversal. It does not affect re-traversal on the next fixed-point
// iteration.
func (p *NodePath) Skip() { p.skip = true }

// Skipped reports whether Skip was called on this path.
func (p *NodePath) Skipped() bool { return p.skip }

// Replace records a byte-range replacement of this node's full source span.
// The replacement is not visible until Print is called; multiple plugins may
// call Replace on different nodes within one traversal.
func (p *NodePath) Replace(text string) {
	p.edits.record(p.node.StartByte(), p.node.EndByte(), text)
}

// Remove replaces this node's span with the empty string.
func (p *NodePath) Remove() { p.Replace("") }

// Walk performs one depth-first traversal of root, invoking visit at every
// node. A node for which visit calls Skip is not descended into. Walk itself
// never re-traverses; the router (C5) is responsible for fixed-point reruns.
func Walk(root *NodePath, visit func(*NodePath)) {
	if root == nil {
		return
	}
	visit(root)
	if root.skip {
		return
	}
	n := root.ChildCount()
	for i := uint(0); i < n; i++ {
		Walk(root.Child(i), visit)
	}
}

// Edits returns the edits recorded against root's path (and therefore every
// path derived from it) so far.
func Edits(root *NodePath) []Edit {
	return root.edits.edits
}

// ApplyEdits splices edits over source. Edits are applied from the highest
// start offset to the lowest so earlier offsets stay valid; an edit whose
// range ends past the start of an already-applied edit (one that encloses or
// overlaps it) is dropped rather than corrupting the splice -- the dropped
// mutation is expected to re-fire, against the new text, on the next
// fixed-point iteration.
func ApplyEdits(source []byte, edits []Edit) []byte {
	if len(edits) == 0 {
		return source
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	result := make([]byte, len(source))
	copy(result, source)

	appliedFrom := ^uint(0)
	for _, e := range sorted {
		if e.End > appliedFrom {
			continue
		}
		next := make([]byte, 0, len(result)-int(e.End-e.Start)+len(e.Replacement))
		next = append(next, result[:e.Start]...)
		next = append(next, []byte(e.Replacement)...)
		next = append(next, result[e.End:]...)
		result = next
		appliedFrom = e.Start
	}
	return result
}

// Print applies edits over source and syntax-gates the result through
// esbuild (LogLevelSilent, no minification, no target downleveling): this
// realizes invariant 6 ("moduleCode, when printed, must be a parseable
// program") and the ParseError error kind without a second hand-rolled JS
// grammar.
func Print(source []byte, edits []Edit) ([]byte, error) {
	out := ApplyEdits(source, edits)
	if err := validateSyntax(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateSyntax(source []byte) error {
	if len(source) == 0 {
		return nil
	}
	result := api.Transform(string(source), api.TransformOptions{
		Loader:   api.LoaderJS,
		LogLevel: api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrParse, result.Errors[0].Text)
	}
	return nil
}
