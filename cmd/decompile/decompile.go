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

// Package decompile provides the decompile command for unbundle.
package decompile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/unbundle/bundle"
)

// Cmd is the decompile command.
var Cmd = &cobra.Command{
	Use:   "decompile",
	Short: "Decompile a Metro bundle back into per-module sources",
	Long: `Decompile a React Native (Metro) JavaScript bundle back into a folder
of per-module source files approximating the original pre-bundling sources.`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("in", "", "Path to bundle (required)")
	Cmd.Flags().String("out", "", "Output folder (required)")
	Cmd.Flags().String("bundlesFolder", "", "Per-module folder for unbundled apps")
	Cmd.Flags().Int("entry", 0, "Restrict decompilation to a module and its transitive dependencies; also enables cache persistence")
	Cmd.Flags().Bool("performance", false, "Emit per-plugin timing")
	Cmd.Flags().Bool("verbose", false, "Print the final module dependency summary")
	Cmd.Flags().Bool("decompileIgnored", false, "Emit modules tagged ignored")
	Cmd.Flags().Bool("aggressiveCache", false, "Trust cached ignore/NPM flags; skip re-parsing their bodies (requires a pre-existing cache)")
	Cmd.Flags().Bool("noEslint", false, "Skip the external lint/format pass")

	_ = Cmd.MarkFlagRequired("in")
	_ = Cmd.MarkFlagRequired("out")

	for _, name := range []string{"in", "out", "bundlesFolder", "entry", "performance", "verbose", "decompileIgnored", "aggressiveCache", "noEslint"} {
		_ = viper.BindPFlag(name, Cmd.Flags().Lookup(name))
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts := bundle.Options{
		In:               viper.GetString("in"),
		Out:              viper.GetString("out"),
		BundlesFolder:    viper.GetString("bundlesFolder"),
		Performance:      viper.GetBool("performance"),
		Verbose:          viper.GetBool("verbose"),
		DecompileIgnored: viper.GetBool("decompileIgnored"),
		AggressiveCache:  viper.GetBool("aggressiveCache"),
		NoEslint:         viper.GetBool("noEslint"),
	}
	if cmd.Flags().Changed("entry") {
		entry := viper.GetInt("entry")
		opts.Entry = &entry
	}

	result, err := bundle.Decompile(opts)
	if err != nil {
		if errors.Is(err, bundle.ErrNoModulesFound) {
			diagnoseNoModules(opts)
		}
		return err
	}

	for _, warning := range result.Warnings {
		pterm.Warning.Println(warning)
	}
	if opts.Performance {
		printPerformance(result)
	}
	if opts.Verbose {
		printSummary(result)
	}
	pterm.Success.Printfln("wrote %d modules to %s", result.Written, opts.Out)
	return nil
}

// diagnoseNoModules prints the likely causes of an empty module set before
// the fatal error surfaces.
func diagnoseNoModules(opts bundle.Options) {
	pterm.Error.Println("No __d(...) module registrations were found. Likely causes:")
	pterm.Println("  - the input file is empty or is not a Metro/React Native bundle")
	pterm.Println("  - the bundle is obfuscated or encrypted (out of scope)")
	pterm.Println("  - --bundlesFolder points at the wrong directory")
	if opts.Entry != nil {
		pterm.Println("  - --entry names a module that is not in the bundle")
	}
}

func printPerformance(result *bundle.Result) {
	for _, pass := range []string{"tagger", "editor", "decompiler"} {
		timings := result.Timings[pass]
		if len(timings) == 0 {
			continue
		}
		names := make([]string, 0, len(timings))
		for name := range timings {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return timings[names[i]] > timings[names[j]] })

		data := pterm.TableData{{"plugin", "total"}}
		for _, name := range names {
			data = append(data, []string{name, timings[name].String()})
		}
		pterm.DefaultSection.Println(pass + " pass")
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}
}

func printSummary(result *bundle.Result) {
	root := pterm.TreeNode{Text: "modules"}
	for _, m := range result.Modules {
		label := strconv.Itoa(m.ModuleID)
		if m.ModuleName != nil {
			label += " (" + *m.ModuleName + ")"
		}
		switch {
		case m.NpmModuleName != "":
			label += " [npm: " + m.NpmModuleName + "]"
		case m.Ignored:
			label += " [ignored]"
		}
		node := pterm.TreeNode{Text: label}
		for _, imp := range m.Imports {
			node.Children = append(node.Children, pterm.TreeNode{Text: fmt.Sprintf("imports %s", imp)})
		}
		root.Children = append(root.Children, node)
	}
	_ = pterm.DefaultTree.WithRoot(root).Render()
}
