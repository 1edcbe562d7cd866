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

// Package bundle orchestrates the full decompilation pipeline: parse the
// bundle, build the module graph, load the cache, run the tagger fixed
// point, propagate ignores, run editors and decompilers, and write one
// source file per surviving module.
package bundle

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/unbundle/bundlecache"
	"bennypowers.dev/unbundle/decompiler"
	"bennypowers.dev/unbundle/editor"
	"bennypowers.dev/unbundle/fs"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/ignorepass"
	"bennypowers.dev/unbundle/module"
	"bennypowers.dev/unbundle/router"
	"bennypowers.dev/unbundle/tagger"
)

// ErrNoModulesFound means the input contained no well-formed __d(...)
// registrations at all. Fatal, with a user-facing diagnosis at the CLI.
var ErrNoModulesFound = errors.New("bundle: no modules found")

// Options configures one decompilation run, mirroring the CLI surface.
type Options struct {
	In            string // bundle file path
	Out           string // output folder
	BundlesFolder string // optional per-module folder for unbundled apps

	Entry *int // restrict to a module and its transitive deps; enables cache persistence

	Performance      bool
	Verbose          bool
	DecompileIgnored bool
	AggressiveCache  bool
	NoEslint         bool // accepted for CLI compatibility; this tool runs no lint pass

	FS fs.FileSystem
}

// ModuleSummary is the per-module slice of a Result, consumed by the
// verbose dependency report.
type ModuleSummary struct {
	ModuleID      int
	ModuleName    *string
	NpmModuleName string
	Ignored       bool
	Written       bool
	Imports       []string // resolved import specifiers, in dependency order
}

// Result reports what a run produced.
type Result struct {
	Modules  []ModuleSummary
	Written  int
	Warnings []error // per-module MalformedRegistration errors, non-fatal

	// Timings holds per-plugin wall time per pass; accumulators reset
	// between passes.
	Timings map[string]map[string]time.Duration
}

// Decompile runs the whole pipeline.
func Decompile(opts Options) (*Result, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewOSFileSystem()
	}

	source, err := readInput(fsys, opts)
	if err != nil {
		return nil, err
	}

	build, err := graph.Build(source)
	if err != nil {
		return nil, err
	}
	g := build.Graph
	if g.Len() == 0 {
		return nil, ErrNoModulesFound
	}

	result := &Result{
		Warnings: build.Errors,
		Timings:  make(map[string]map[string]time.Duration),
	}

	cachePath := bundlecache.PathFor(opts.Out, opts.Entry)
	cached, err := loadCache(fsys, cachePath, source, opts)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		if err := bundlecache.Apply(cached, g, opts.AggressiveCache); err != nil {
			return nil, err
		}
	}

	if opts.Entry != nil {
		if err := ignorepass.EntryClosure(g, *opts.Entry, opts.AggressiveCache); err != nil {
			return nil, err
		}
		if g.Len() == 0 {
			return nil, ErrNoModulesFound
		}
	}

	r := router.New()
	for _, t := range tagger.All() {
		r.RegisterTagger(t)
	}
	for _, e := range editor.All() {
		r.RegisterEditor(e)
	}
	for _, d := range decompiler.All() {
		r.RegisterDecompiler(d)
	}

	for _, m := range g.All() {
		if err := r.RunTaggers(g, m); err != nil {
			return nil, err
		}
	}
	result.Timings["tagger"] = r.Metrics().Snapshot()
	r.Metrics().Reset()

	ignorepass.Propagate(g)

	for _, m := range g.All() {
		if skipRewrite(m, opts) {
			continue
		}
		if err := r.RunEditors(g, m); err != nil {
			return nil, fmt.Errorf("editor pass on module %d: %w", m.ModuleID, err)
		}
	}
	result.Timings["editor"] = r.Metrics().Snapshot()
	r.Metrics().Reset()

	for _, m := range g.All() {
		if skipRewrite(m, opts) {
			continue
		}
		if err := r.RunDecompilers(g, m); err != nil {
			return nil, fmt.Errorf("decompiler pass on module %d: %w", m.ModuleID, err)
		}
	}
	result.Timings["decompiler"] = r.Metrics().Snapshot()
	r.Metrics().Reset()

	if err := writeOutput(fsys, g, opts, result); err != nil {
		return nil, err
	}

	if opts.Entry != nil {
		doc := bundlecache.FromGraph(g, source)
		if err := bundlecache.Save(fsys, cachePath, doc); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func readInput(fsys fs.FileSystem, opts Options) ([]byte, error) {
	source, err := fsys.ReadFile(opts.In)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", opts.In, err)
	}
	if opts.BundlesFolder == "" {
		return source, nil
	}
	// Unbundled apps ship extra per-module script files using the same __d
	// convention; concatenating them onto the main bundle lets one parse and
	// one graph cover both.
	pattern := path.Join(filepath.ToSlash(opts.BundlesFolder), "*.js")
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("bundle: glob %s: %w", pattern, err)
	}
	for _, match := range matches {
		extra, err := fsys.ReadFile(match)
		if err != nil {
			return nil, fmt.Errorf("bundle: read %s: %w", match, err)
		}
		source = append(source, '\n')
		source = append(source, extra...)
	}
	return source, nil
}

func loadCache(fsys fs.FileSystem, cachePath string, source []byte, opts Options) (*bundlecache.Document, error) {
	if opts.AggressiveCache {
		// Aggressive mode trusts cached flags; running it without a cache to
		// trust is an operator error.
		doc, err := bundlecache.Load(fsys, cachePath, source)
		if err != nil {
			return nil, fmt.Errorf("aggressive cache requires a valid cache: %w", err)
		}
		return doc, nil
	}
	if !fsys.Exists(cachePath) {
		return nil, nil
	}
	doc, err := bundlecache.Load(fsys, cachePath, source)
	if errors.Is(err, bundlecache.ErrChecksumMismatch) {
		return nil, nil // stale cache: discard and retag from scratch
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func skipRewrite(m *module.Module, opts Options) bool {
	return m.Ignored && !opts.DecompileIgnored
}

func writeOutput(fsys fs.FileSystem, g *graph.Graph, opts Options, result *Result) error {
	if err := fsys.MkdirAll(opts.Out, 0o755); err != nil {
		return fmt.Errorf("bundle: mkdir %s: %w", opts.Out, err)
	}
	for _, m := range g.All() {
		summary := ModuleSummary{
			ModuleID:      m.ModuleID,
			ModuleName:    m.ModuleName,
			NpmModuleName: m.NpmModuleName,
			Ignored:       m.Ignored,
		}
		for i := range m.Dependencies {
			if specifier, ok := decompiler.ResolveSpecifier(g, m, i); ok {
				summary.Imports = append(summary.Imports, specifier)
			}
		}
		if !skipRewrite(m, opts) {
			name := filepath.Join(opts.Out, strconv.Itoa(m.ModuleID)+".js")
			wrote, err := fs.WriteFileIfChanged(fsys, name, m.ModuleCode.Source(), 0o644)
			if err != nil {
				return fmt.Errorf("bundle: write %s: %w", name, err)
			}
			summary.Written = true
			if wrote {
				result.Written++
			}
		}
		result.Modules = append(result.Modules, summary)
	}
	return nil
}
