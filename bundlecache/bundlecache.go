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

// Package bundlecache persists per-module tagging results keyed by a
// checksum of the full bundle text (C10), so a second run over an unchanged
// bundle can skip re-recognizing every module.
package bundlecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"bennypowers.dev/unbundle/ast"
	"bennypowers.dev/unbundle/fs"
	"bennypowers.dev/unbundle/graph"
	"bennypowers.dev/unbundle/module"
)

// ErrChecksumMismatch means the cache was built from a different bundle.
// Recoverable: callers discard the cache and proceed without it.
var ErrChecksumMismatch = errors.New("bundlecache: bundle checksum mismatch")

// CachedModule is the persisted tagging state of one module.
type CachedModule struct {
	ModuleID      int      `json:"moduleId"`
	ModuleName    *string  `json:"moduleName,omitempty"`
	Dependencies  []*int   `json:"dependencies"`
	OriginalCode  string   `json:"originalCode"`
	Tags          []string `json:"tags"`
	IsNpmModule   bool     `json:"isNpmModule"`
	NpmModuleName string   `json:"npmModuleName,omitempty"`
	Ignored       bool     `json:"ignored"`
}

// Document is the on-disk cache format.
type Document struct {
	Checksum      string         `json:"checksum"`
	InputChecksum string         `json:"inputChecksum,omitempty"`
	Modules       []CachedModule `json:"modules"`
}

// Checksum returns the hex sha256 digest of the full bundle text.
func Checksum(bundle []byte) string {
	sum := sha256.Sum256(bundle)
	return hex.EncodeToString(sum[:])
}

// PathFor returns the cache file path for an output directory and optional
// entry module: <out>/<entry>.cache, or <out>/null.cache with no entry.
func PathFor(outDir string, entry *int) string {
	name := "null"
	if entry != nil {
		name = strconv.Itoa(*entry)
	}
	return filepath.Join(outDir, name+".cache")
}

// FromGraph snapshots every module's tagging state into a Document keyed by
// the bundle's checksum.
func FromGraph(g *graph.Graph, bundle []byte) *Document {
	doc := &Document{Checksum: Checksum(bundle)}
	for _, m := range g.All() {
		tags := make([]string, 0, len(m.Tags))
		for tag := range m.Tags {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		doc.Modules = append(doc.Modules, CachedModule{
			ModuleID:      m.ModuleID,
			ModuleName:    m.ModuleName,
			Dependencies:  m.Dependencies,
			OriginalCode:  m.OriginalCode,
			Tags:          tags,
			IsNpmModule:   m.IsNpmModule,
			NpmModuleName: m.NpmModuleName,
			Ignored:       m.Ignored,
		})
	}
	return doc
}

// Save writes doc to path.
func Save(fsys fs.FileSystem, path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("bundlecache: marshal: %w", err)
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bundlecache: write %s: %w", path, err)
	}
	return nil
}

// Load reads the cache at path and validates it against bundle. A digest
// mismatch returns ErrChecksumMismatch; the caller discards the cache.
func Load(fsys fs.FileSystem, path string, bundle []byte) (*Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundlecache: read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bundlecache: parse %s: %w", path, err)
	}
	if doc.Checksum != Checksum(bundle) {
		return nil, ErrChecksumMismatch
	}
	return &doc, nil
}

// Apply restores doc's tagging state onto matching graph modules. In
// aggressive mode, a cached module that is ignored and not NPM has its
// working AST replaced by an empty program stub (its body will never be
// printed), and a cached module missing from the graph entirely is
// registered as a stub so dependency slots still resolve -- trading the
// dependency errors a full parse would surface for speed.
func Apply(doc *Document, g *graph.Graph, aggressive bool) error {
	for _, cm := range doc.Modules {
		m, ok := g.Get(cm.ModuleID)
		if !ok {
			if !aggressive {
				continue
			}
			stub, err := stubModule(cm)
			if err != nil {
				return err
			}
			g.Add(stub)
			continue
		}
		for _, tag := range cm.Tags {
			m.Tag(tag, nil)
		}
		if cm.IsNpmModule {
			m.TagAsNpmModule(cm.NpmModuleName)
		}
		if cm.Ignored {
			m.Ignore()
		}
		if aggressive && cm.Ignored && !cm.IsNpmModule {
			empty, err := ast.Parse([]byte{})
			if err != nil {
				return err
			}
			m.ModuleCode.Close()
			m.ModuleCode = empty
		}
	}
	return nil
}

func stubModule(cm CachedModule) (*module.Module, error) {
	empty, err := ast.Parse([]byte{})
	if err != nil {
		return nil, err
	}
	m := &module.Module{
		ModuleID:      cm.ModuleID,
		ModuleName:    cm.ModuleName,
		Dependencies:  cm.Dependencies,
		OriginalCode:  cm.OriginalCode,
		ModuleCode:    empty,
		Tags:          make(map[string]struct{}),
		TagParameters: make(map[string]any),
	}
	for _, tag := range cm.Tags {
		m.Tag(tag, nil)
	}
	if cm.IsNpmModule {
		m.TagAsNpmModule(cm.NpmModuleName)
	}
	if cm.Ignored {
		m.Ignore()
	}
	return m, nil
}
