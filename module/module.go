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

// Package module holds the in-memory representation of one __d(...)
// registration (C2): its AST, original source, dependency list and the
// tagging/ignoring state every plugin reads and writes.
package module

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bennypowers.dev/unbundle/ast"
)

// ErrMalformedRegistration is raised when a __d(...) call does not have the
// fixed shape spec.md §4.2 requires. The driver logs it and skips just that
// module (spec.md §7).
var ErrMalformedRegistration = errors.New("module: malformed __d registration")

// functionLikeKinds enumerates the tree-sitter node kinds a factory argument
// may parse as, across grammar versions.
var functionLikeKinds = map[string]bool{
	"function_expression": true,
	"function":            true,
}

// Bindings records the local identifier names the factory bound to Metro's
// seven fixed calling-convention parameters, learned by position since the
// minifier renames them freely.
type Bindings struct {
	Global         string
	Require        string
	ImportDefault  string
	ImportAll      string
	Module         string
	Exports        string
	DependencyMap  string
}

// Module is one __d(...) registration and everything a pass needs to read
// or mutate about it.
type Module struct {
	ModuleID     int
	ModuleName   *string
	Dependencies []*int // nil entry == no dependency at that slot

	OriginalCode string // source text of the full __d(...) call
	FactoryBody  string // source text of the factory function's body statements

	Bindings Bindings

	ModuleCode *ast.Tree // working AST; replaced by a reparsed tree whenever editors/decompilers apply edits

	Tags          map[string]struct{}
	TagParameters map[string]any

	IsNpmModule   bool
	NpmModuleName string
	Ignored       bool
}

// New constructs a Module from a NodePath positioned at a __d(...)
// call_expression. It fails with ErrMalformedRegistration without aborting
// the rest of the bundle (spec.md §4.2, §7).
func New(call *ast.NodePath) (*Module, error) {
	if call.Kind() != "call_expression" {
		return nil, fmt.Errorf("%w: not a call expression", ErrMalformedRegistration)
	}

	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" || callee.Text() != "__d" {
		return nil, fmt.Errorf("%w: callee is not __d", ErrMalformedRegistration)
	}

	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil, fmt.Errorf("%w: missing arguments", ErrMalformedRegistration)
	}

	var args []*ast.NodePath
	for i := uint(0); i < argsNode.NamedChildCount(); i++ {
		args = append(args, argsNode.NamedChild(i))
	}
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 arguments, got %d", ErrMalformedRegistration, len(args))
	}

	factory := args[0]
	if !functionLikeKinds[factory.Kind()] {
		return nil, fmt.Errorf("%w: argument 0 is not a function", ErrMalformedRegistration)
	}

	params, err := factoryParams(factory)
	if err != nil {
		return nil, err
	}

	body := factory.ChildByFieldName("body")
	if body == nil || body.Kind() != "statement_block" {
		return nil, fmt.Errorf("%w: factory has no body block", ErrMalformedRegistration)
	}
	bodyText := body.Text()
	// Strip the enclosing braces: moduleCode reparses the statements alone,
	// as a fresh Program, per spec.md §4.2 "initialize()".
	inner := strings.TrimSpace(bodyText)
	inner = strings.TrimPrefix(inner, "{")
	inner = strings.TrimSuffix(inner, "}")

	moduleID, err := strconv.Atoi(args[1].Text())
	if err != nil {
		return nil, fmt.Errorf("%w: moduleId is not numeric: %v", ErrMalformedRegistration, err)
	}

	var deps []*int
	if len(args) >= 3 && args[2].Kind() == "array" {
		deps = parseDependencyArray(args[2])
	}

	var moduleName *string
	if len(args) >= 4 {
		text := unquote(args[3].Text())
		moduleName = &text
	}

	moduleCode, err := ast.Parse([]byte(inner))
	if err != nil {
		return nil, fmt.Errorf("%w: factory body does not parse: %v", ErrMalformedRegistration, err)
	}

	m := &Module{
		ModuleID:      moduleID,
		ModuleName:    moduleName,
		Dependencies:  deps,
		OriginalCode:  call.Text(),
		FactoryBody:   inner,
		ModuleCode:    moduleCode,
		Tags:          make(map[string]struct{}),
		TagParameters: make(map[string]any),
		Bindings: Bindings{
			Global:        params[0],
			Require:       params[1],
			ImportDefault: params[2],
			ImportAll:     params[3],
			Module:        params[4],
			Exports:       params[5],
			DependencyMap: params[6],
		},
	}
	return m, nil
}

func factoryParams(factory *ast.NodePath) ([]string, error) {
	paramsNode := factory.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil, fmt.Errorf("%w: factory has no parameter list", ErrMalformedRegistration)
	}
	var names []string
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		p := paramsNode.NamedChild(i)
		// The TSX grammar wraps each plain parameter in a required_parameter
		// node whose "pattern" field holds the identifier.
		if p.Kind() == "required_parameter" {
			if pattern := p.ChildByFieldName("pattern"); pattern != nil {
				p = pattern
			}
		}
		if p.Kind() != "identifier" {
			return nil, fmt.Errorf("%w: non-identifier factory parameter %q", ErrMalformedRegistration, p.Kind())
		}
		names = append(names, p.Text())
	}
	if len(names) != 7 {
		return nil, fmt.Errorf("%w: expected 7 factory parameters, got %d", ErrMalformedRegistration, len(names))
	}
	return names, nil
}

func parseDependencyArray(arr *ast.NodePath) []*int {
	var deps []*int
	for i := uint(0); i < arr.NamedChildCount(); i++ {
		el := arr.NamedChild(i)
		if el == nil || el.Kind() != "number" {
			deps = append(deps, nil)
			continue
		}
		n, err := strconv.Atoi(el.Text())
		if err != nil {
			deps = append(deps, nil)
			continue
		}
		id := n
		deps = append(deps, &id)
	}
	return deps
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Tag adds a classification label with optional auxiliary data. Idempotent:
// re-tagging with the same name overwrites parameters rather than erroring,
// per spec.md §4.6's idempotence requirement.
func (m *Module) Tag(name string, parameters any) {
	m.Tags[name] = struct{}{}
	if parameters != nil {
		m.TagParameters[name] = parameters
	}
}

// HasTag reports whether name was previously set by Tag.
func (m *Module) HasTag(name string) bool {
	_, ok := m.Tags[name]
	return ok
}

// TagAsNpmModule marks m as a recognized third-party package. NPM modules
// are ignored by default (invariant 4).
func (m *Module) TagAsNpmModule(packageName string) {
	m.IsNpmModule = true
	m.NpmModuleName = packageName
	m.Ignore()
}

// Ignore marks m as excluded from output. Once set it is never cleared
// (invariant 3).
func (m *Module) Ignore() { m.Ignored = true }

// IsRequireCall reports whether node is require(dependencyMap[i]) and
// returns the dependency-map index if so.
func (m *Module) IsRequireCall(node *ast.NodePath) (int, bool) {
	return m.dependencyMapCallIndex(node, m.Bindings.Require)
}

// IsImportDefaultCall reports whether node is importDefault(dependencyMap[i]).
func (m *Module) IsImportDefaultCall(node *ast.NodePath) (int, bool) {
	return m.dependencyMapCallIndex(node, m.Bindings.ImportDefault)
}

// IsImportAllCall reports whether node is importAll(dependencyMap[i]).
func (m *Module) IsImportAllCall(node *ast.NodePath) (int, bool) {
	return m.dependencyMapCallIndex(node, m.Bindings.ImportAll)
}

func (m *Module) dependencyMapCallIndex(node *ast.NodePath, calleeName string) (int, bool) {
	if calleeName == "" || node.Kind() != "call_expression" {
		return 0, false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || fn.Text() != calleeName {
		return 0, false
	}
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.NamedChildCount() != 1 {
		return 0, false
	}
	return m.dependencyMapIndex(argsNode.NamedChild(0))
}

// dependencyMapIndex reports whether node is dependencyMap[i] and returns i.
func (m *Module) dependencyMapIndex(node *ast.NodePath) (int, bool) {
	if node == nil || node.Kind() != "subscript_expression" {
		return 0, false
	}
	obj := node.ChildByFieldName("object")
	idx := node.ChildByFieldName("index")
	if obj == nil || idx == nil {
		return 0, false
	}
	if obj.Kind() != "identifier" || obj.Text() != m.Bindings.DependencyMap {
		return 0, false
	}
	if idx.Kind() != "number" {
		return 0, false
	}
	n, err := strconv.Atoi(idx.Text())
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsModuleExportsAssignment reports whether node is `module.exports = E` and
// returns the right-hand-side NodePath.
func (m *Module) IsModuleExportsAssignment(node *ast.NodePath) (*ast.NodePath, bool) {
	if node.Kind() != "assignment_expression" {
		return nil, false
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "member_expression" {
		return nil, false
	}
	obj := left.ChildByFieldName("object")
	prop := left.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return nil, false
	}
	if obj.Kind() != "identifier" || obj.Text() != m.Bindings.Module {
		return nil, false
	}
	if prop.Text() != "exports" {
		return nil, false
	}
	return node.ChildByFieldName("right"), true
}

// IsExportsPropertyAssignment reports whether node is `exports.X = E` and
// returns the property name X and the right-hand-side NodePath.
func (m *Module) IsExportsPropertyAssignment(node *ast.NodePath) (name string, rhs *ast.NodePath, ok bool) {
	if node.Kind() != "assignment_expression" {
		return "", nil, false
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "member_expression" {
		return "", nil, false
	}
	obj := left.ChildByFieldName("object")
	prop := left.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return "", nil, false
	}
	if obj.Kind() != "identifier" || obj.Text() != m.Bindings.Exports {
		return "", nil, false
	}
	return prop.Text(), node.ChildByFieldName("right"), true
}
