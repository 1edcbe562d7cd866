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

import "bennypowers.dev/unbundle/plugin"

// All returns the full catalog of Taggers in priority order, ready to
// register with a router.Router.
func All() []plugin.Tagger {
	return []plugin.Tagger{
		NewBabelHelperFingerprintTagger(),
		NewNpmPackageNameTagger(),
		NewIgnoreRuntimeGlueTagger(),
		NewReactComponentTagger(),
	}
}
