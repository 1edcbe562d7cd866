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
package graph_test

import (
	"testing"

	"bennypowers.dev/unbundle/graph"
)

const threeModuleBundle = `
__d(function(g,r,i,a,m,e,d){m.exports=r(d[0]);},1,[2]);
__d(function(g,r,i,a,m,e,d){m.exports=r(d[0]);},2,[3]);
__d(function(g,r,i,a,m,e,d){m.exports=3;},3,[]);
`

func TestBuildEnumeratesModules(t *testing.T) {
	result, err := graph.Build([]byte(threeModuleBundle))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected construction errors: %v", result.Errors)
	}
	if result.Graph.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", result.Graph.Len())
	}
	for _, id := range []int{1, 2, 3} {
		if _, ok := result.Graph.Get(id); !ok {
			t.Errorf("missing module %d", id)
		}
	}
}

func TestBuildSkipsMalformedRegistrationWithoutAborting(t *testing.T) {
	bundle := `
__d(function(g,r,i,a,m,e,d){m.exports=1;},1,[]);
__d(function(g,r,i){m.exports=2;},2,[]);
__d(function(g,r,i,a,m,e,d){m.exports=3;},3,[]);
`
	result, err := graph.Build([]byte(bundle))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one malformed-registration error, got %v", result.Errors)
	}
	if result.Graph.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (module 2 should be skipped)", result.Graph.Len())
	}
}

func TestDependentsIsReverseOfDependencies(t *testing.T) {
	result, err := graph.Build([]byte(threeModuleBundle))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g := result.Graph

	dependents := g.Dependents(2)
	if len(dependents) != 1 || dependents[0] != 1 {
		t.Fatalf("Dependents(2) = %v, want [1]", dependents)
	}

	dependents3 := g.Dependents(3)
	if len(dependents3) != 1 || dependents3[0] != 2 {
		t.Fatalf("Dependents(3) = %v, want [2]", dependents3)
	}

	if len(g.Dependents(1)) != 0 {
		t.Fatalf("Dependents(1) = %v, want none", g.Dependents(1))
	}
}
