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
package tagger

import (
	"strings"

	"bennypowers.dev/unbundle/plugin"
)

// npmPackageRoots lists the well-known package-root moduleNames this tagger
// recognizes. Bundles built with named modules (spec.md §3's optional
// moduleName) give the bootstrap module of a bundled package a stable name
// equal to the package's own root-relative path.
var npmPackageRoots = []string{"react", "react-native", "prop-types"}

// npmPackageNameTagger recognizes third-party packages by their moduleName
// rather than content, for bundles built with named modules.
type npmPackageNameTagger struct{}

// NewNpmPackageNameTagger returns the Tagger that recognizes react,
// react-native and prop-types by their moduleName.
func NewNpmPackageNameTagger() plugin.Tagger { return npmPackageNameTagger{} }

func (npmPackageNameTagger) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "npm-package-name",
		Pass:      plugin.TaggerPass,
		Priority:  1,
		NodeKinds: []string{plugin.WholeModule},
	}
}

func (npmPackageNameTagger) Evaluate(ctx *plugin.Context) bool {
	m := ctx.Module
	if m.IsNpmModule || m.ModuleName == nil {
		return false
	}
	if pkg, ok := matchPackageRoot(*m.ModuleName); ok {
		m.TagAsNpmModule(pkg)
		return true
	}
	return false
}

func matchPackageRoot(moduleName string) (string, bool) {
	for _, pkg := range npmPackageRoots {
		if moduleName == pkg || strings.HasPrefix(moduleName, pkg+"/") {
			return pkg, true
		}
	}
	return "", false
}
