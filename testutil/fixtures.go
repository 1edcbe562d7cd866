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

// Package testutil builds synthetic Metro bundles for tests.
package testutil

import (
	"fmt"
	"strings"
)

// ModuleFixture describes one __d(...) registration of a synthetic bundle.
type ModuleFixture struct {
	ID   int
	Deps []int
	Name string // optional fourth __d argument
	Body string // factory body statements, using params (g,r,i,a,m,e,d)
}

// Bundle renders fixtures as a bundle of __d(...) registrations in the
// seven-parameter Metro factory convention.
func Bundle(fixtures ...ModuleFixture) string {
	var b strings.Builder
	for _, f := range fixtures {
		deps := make([]string, len(f.Deps))
		for i, d := range f.Deps {
			deps[i] = fmt.Sprintf("%d", d)
		}
		fmt.Fprintf(&b, "__d(function(g,r,i,a,m,e,d){%s},%d,[%s]", f.Body, f.ID, strings.Join(deps, ","))
		if f.Name != "" {
			fmt.Fprintf(&b, ",%q", f.Name)
		}
		b.WriteString(");\n")
	}
	return b.String()
}
