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

// ignoreRuntimeGlueTagger recognizes Metro/Hermes polyfill and bootstrap
// modules by their stable moduleName -- these never round-trip to anything
// a developer wrote, so they are dropped from output by default.
type ignoreRuntimeGlueTagger struct{}

// NewIgnoreRuntimeGlueTagger returns the Tagger that ignores
// polyfills/*, InitializeCore and babelHelpers modules.
func NewIgnoreRuntimeGlueTagger() plugin.Tagger { return ignoreRuntimeGlueTagger{} }

func (ignoreRuntimeGlueTagger) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "ignore-runtime-glue",
		Pass:      plugin.TaggerPass,
		Priority:  2,
		NodeKinds: []string{plugin.WholeModule},
	}
}

func (ignoreRuntimeGlueTagger) Evaluate(ctx *plugin.Context) bool {
	m := ctx.Module
	if m.Ignored || m.ModuleName == nil {
		return false
	}
	name := *m.ModuleName
	if strings.HasPrefix(name, "polyfills/") || name == "InitializeCore" || name == "babelHelpers" {
		m.Tag("runtime-glue", nil)
		m.Ignore()
		return true
	}
	return false
}
