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
package module_test

import (
	"errors"
	"testing"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/module"
)

func parseFirstCall(t *testing.T, src string) *ast.NodePath {
	t.Helper()
	tree, err := ast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var call *ast.NodePath
	ast.Walk(tree.Root(), func(p *ast.NodePath) {
		if call == nil && p.Kind() == "call_expression" {
			call = p
		}
	})
	if call == nil {
		t.Fatalf("no call_expression found in %q", src)
	}
	return call
}

func TestNewParsesWellFormedRegistration(t *testing.T) {
	call := parseFirstCall(t, `__d(function(g,r,i,a,m,e,d){m.exports=42;},0,[1,2],"foo/Bar");`)

	m, err := module.New(call)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.ModuleID != 0 {
		t.Errorf("ModuleID = %d, want 0", m.ModuleID)
	}
	if m.ModuleName == nil || *m.ModuleName != "foo/Bar" {
		t.Errorf("ModuleName = %v, want foo/Bar", m.ModuleName)
	}
	if len(m.Dependencies) != 2 || *m.Dependencies[0] != 1 || *m.Dependencies[1] != 2 {
		t.Errorf("Dependencies = %v, want [1 2]", m.Dependencies)
	}
	if m.Bindings.Module != "m" || m.Bindings.Exports != "e" {
		t.Errorf("bindings not learned positionally: %+v", m.Bindings)
	}
}

func TestNewRejectsWrongArity(t *testing.T) {
	call := parseFirstCall(t, `__d(function(g,r,i){m.exports=1;},0,[]);`)
	if _, err := module.New(call); !errors.Is(err, module.ErrMalformedRegistration) {
		t.Fatalf("expected ErrMalformedRegistration, got %v", err)
	}
}

func TestNewRejectsNonDCallee(t *testing.T) {
	call := parseFirstCall(t, `notD(function(g,r,i,a,m,e,d){},0,[]);`)
	if _, err := module.New(call); !errors.Is(err, module.ErrMalformedRegistration) {
		t.Fatalf("expected ErrMalformedRegistration, got %v", err)
	}
}

func TestModuleExportsAssignmentPredicate(t *testing.T) {
	call := parseFirstCall(t, `__d(function(g,r,i,a,m,e,d){m.exports=42;},0,[]);`)
	m, err := module.New(call)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var found bool
	ast.Walk(m.ModuleCode.Root(), func(p *ast.NodePath) {
		if rhs, ok := m.IsModuleExportsAssignment(p); ok {
			found = true
			if rhs.Text() != "42" {
				t.Errorf("rhs = %q, want 42", rhs.Text())
			}
		}
	})
	if !found {
		t.Fatalf("expected to find module.exports assignment in moduleCode")
	}
}

func TestTagIdempotence(t *testing.T) {
	call := parseFirstCall(t, `__d(function(g,r,i,a,m,e,d){},0,[]);`)
	m, err := module.New(call)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.Tag("react-component", nil)
	m.Tag("react-component", nil)
	if len(m.Tags) != 1 {
		t.Fatalf("expected a single tag after repeated Tag calls, got %v", m.Tags)
	}
}

func TestTagAsNpmModuleIgnoresByDefault(t *testing.T) {
	call := parseFirstCall(t, `__d(function(g,r,i,a,m,e,d){},0,[]);`)
	m, err := module.New(call)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.TagAsNpmModule("@babel/runtime/helpers/toConsumableArray")
	if !m.IsNpmModule || !m.Ignored {
		t.Fatalf("expected IsNpmModule and Ignored both true, got %+v", m)
	}
}
