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

// Package tagger holds the concrete pattern recognizers (C6): cheap
// fingerprint taggers that regex-match minified source, and structural
// taggers that walk the AST.
package tagger

import (
	"regexp"

	"bennypowers.dev/unbundle/plugin"
)

// FingerprintRule is one entry in the Babel-helper catalog: data, not code,
// per spec.md §9's design note -- a new minifier output needs a new
// fingerprint, not a new code path.
type FingerprintRule struct {
	Package string
	Pattern *regexp.Regexp
}

// babelHelperCatalog matches the stable minified shapes Babel's runtime
// helpers compile down to. Catalog order is priority order: earlier entries
// win ties, per spec.md §4.6.
var babelHelperCatalog = []FingerprintRule{
	{
		Package: "@babel/runtime/helpers/toConsumableArray",
		Pattern: regexp.MustCompile(`function\s+(\w+)\((\w+)\)\{return \w+\(\w+\)\|\|\w+\(\w+\)\|\|\w+\(\w+,\w+\)\|\|\w+\(\);\}`),
	},
	{
		Package: "@babel/runtime/helpers/classCallCheck",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+,\w+\)\{if\(!\(\w+ instanceof \w+\)\)\{throw new TypeError\("Cannot call a class as a function"\);?\}\}`),
	},
	{
		Package: "@babel/runtime/helpers/createClass",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+,\w+\)\{for\(var \w+=0;\w+<\w+\.length;\w+\+\+\)\{var \w+=\w+\[\w+\];`),
	},
	{
		Package: "@babel/runtime/helpers/defineProperty",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+,\w+,\w+\)\{(?:\w+ in \w+\?)?Object\.defineProperty\(\w+,\w+,\{value:\w+,enumerable:!0,configurable:!0,writable:!0\}\)`),
	},
	{
		Package: "@babel/runtime/helpers/extends",
		Pattern: regexp.MustCompile(`function\s+\w+\(\)\{(?:var \w+;)?\w+=Object\.assign\?Object\.assign\.bind\(\):function\(\w+\)\{for\(var \w+=1;\w+<arguments\.length;\w+\+\+\)\{var \w+=arguments\[\w+\];`),
	},
	{
		Package: "@babel/runtime/helpers/objectSpread2",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+\)\{for\(var \w+=1;\w+<arguments\.length;\w+\+\+\)\{var \w+=arguments\[\w+\]!=null\?arguments\[\w+\]:\{\};`),
	},
	{
		Package: "@babel/runtime/helpers/slicedToArray",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+,\w+\)\{return \w+\(\w+\)\|\|\w+\(\w+,\w+\)\|\|\w+\(\w+,\w+\)\|\|\w+\(\);\}`),
	},
	{
		Package: "@babel/runtime/helpers/asyncToGenerator",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+\)\{return function\(\)\{var \w+=this,\w+=arguments;return new Promise\(function\(\w+,\w+\)\{`),
	},
	{
		Package: "@babel/runtime/helpers/interopRequireDefault",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+\)\{return \w+&&\w+\.__esModule\?\w+:\{default:\w+\};?\}`),
	},
	{
		Package: "@babel/runtime/helpers/interopRequireWildcard",
		Pattern: regexp.MustCompile(`function\s+\w+\(\w+\)\{if\(\w+&&\w+\.__esModule\)\{return \w+;\}`),
	},
}

// babelHelperFingerprintTagger matches originalCode against babelHelperCatalog.
type babelHelperFingerprintTagger struct{}

// NewBabelHelperFingerprintTagger returns the Tagger that recognizes
// @babel/runtime/helpers/* modules by their minified shape.
func NewBabelHelperFingerprintTagger() plugin.Tagger { return babelHelperFingerprintTagger{} }

func (babelHelperFingerprintTagger) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:      "babel-helper-fingerprint",
		Pass:      plugin.TaggerPass,
		Priority:  0,
		NodeKinds: []string{plugin.WholeModule},
	}
}

func (babelHelperFingerprintTagger) Evaluate(ctx *plugin.Context) bool {
	m := ctx.Module
	if m.IsNpmModule {
		return false
	}
	if pkg, ok := MatchBabelHelper(m.OriginalCode); ok {
		m.TagAsNpmModule(pkg)
		return true
	}
	return false
}

// MatchBabelHelper reports whether code matches a known Babel runtime
// helper's minified shape, returning its canonical package path. Exported so
// the decompiler's un-inlining rewrite can recognize the same shapes inside
// a function declaration copied inline into a consuming module.
func MatchBabelHelper(code string) (string, bool) {
	for _, rule := range babelHelperCatalog {
		if rule.Pattern.MatchString(code) {
			return rule.Package, true
		}
	}
	return "", false
}
