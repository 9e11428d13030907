// Suggestion derivation. Every rule reads only already-computed state
// (catalog, graph counters, metrics, estimates) and no rule depends on
// another rule's output.
package suggest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/types"
)

// Fixed rule thresholds.
const (
	fanInThreshold       = 5     // reverse-dependency count for forward-declaration advice
	pimplSizeThreshold   = 15000 // header bytes before PIMPL advice
	forwardDeclThreshold = 5     // forward decls marking a declaration-only header
	includeCountCeiling  = 3     // includes below which a header counts as declaration-only
	slowFileLimit        = 5     // top N files by estimated compile time
	slowFileFloor        = 1.0   // seconds before restructuring advice
)

// Inputs is the read-only analysis state the rules consume.
type Inputs struct {
	Headers       []types.SourceFile // catalog order
	ReverseCounts map[string]int
	Metrics       map[string]types.FileMetrics
	Estimates     map[string]float64
	Project       config.Project
	Optimization  config.Optimization
}

// Derive runs every rule. Rules are order-insensitive among themselves;
// the fixed invocation order here only keeps output stable across runs.
func Derive(in Inputs) []types.Suggestion {
	var out []types.Suggestion
	out = append(out, forwardDeclarations(in)...)
	out = append(out, pimplPattern(in)...)
	out = append(out, unifiedHeaders(in)...)
	out = append(out, buildOptimizations(in)...)
	out = append(out, compilerOptimizations(in)...)
	out = append(out, codeRestructuring(in)...)
	out = append(out, cachingStrategies(in)...)
	return out
}

// forwardDeclarations flags headers with high fan-in.
func forwardDeclarations(in Inputs) []types.Suggestion {
	var out []types.Suggestion
	for _, h := range in.Headers {
		count := in.ReverseCounts[h.Path]
		if count <= fanInThreshold {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
		out = append(out, types.Suggestion{
			Kind:        types.SuggestForwardDeclaration,
			Target:      h.Path,
			Priority:    types.SeverityHigh,
			Description: fmt.Sprintf("header is included by %d files; forward declarations could cut rebuild fan-out", count),
			Action:      fmt.Sprintf("where only pointers or references are used, replace the include with `class %s;`", stem),
		})
	}
	return out
}

// pimplPattern flags oversized headers.
func pimplPattern(in Inputs) []types.Suggestion {
	var out []types.Suggestion
	for _, h := range in.Headers {
		if h.Size <= pimplSizeThreshold {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
		out = append(out, types.Suggestion{
			Kind:        types.SuggestPimplPattern,
			Target:      h.Path,
			Priority:    types.SeverityMedium,
			Description: fmt.Sprintf("large header %s (%d bytes) is a PIMPL candidate", stem, h.Size),
			Action:      "move implementation detail behind a pointer-to-implementation to shrink the public header",
		})
	}
	return out
}

// unifiedHeaders flags declaration-only headers worth centralizing:
// many forward declarations, almost no includes.
func unifiedHeaders(in Inputs) []types.Suggestion {
	var out []types.Suggestion
	for _, h := range in.Headers {
		m, ok := in.Metrics[h.Path]
		if !ok {
			continue
		}
		if m.ForwardDecls > forwardDeclThreshold && m.IncludeCount < includeCountCeiling {
			out = append(out, types.Suggestion{
				Kind:        types.SuggestUnifiedHeader,
				Target:      h.Path,
				Priority:    types.SeverityLow,
				Description: "declaration-only header detected; type declarations could be managed centrally",
				Action:      "consider making this file the project's single forward-declaration entry point",
			})
		}
	}
	return out
}

// buildOptimizations derives project-wide advice from configuration.
func buildOptimizations(in Inputs) []types.Suggestion {
	out := []types.Suggestion{{
		Kind:        types.SuggestBuildOptimization,
		Target:      "PROJECT",
		Priority:    types.SeverityHigh,
		Description: fmt.Sprintf("use %s parallel compilation", in.Project.BuildSystem),
		Action:      "run " + parallelBuildCommand(in.Project.BuildSystem),
	}}

	if in.Optimization.CacheCompilation {
		out = append(out, types.Suggestion{
			Kind:        types.SuggestBuildOptimization,
			Target:      "PROJECT",
			Priority:    types.SeverityMedium,
			Description: "use ccache/sccache to skip redundant recompiles",
			Action:      `install and configure ccache: export CC="ccache gcc"`,
		})
	}

	if in.Optimization.UnityBuild {
		out = append(out, types.Suggestion{
			Kind:        types.SuggestBuildOptimization,
			Target:      "PROJECT",
			Priority:    types.SeverityMedium,
			Description: "use unity builds to reduce translation units",
			Action:      "merge groups of source files into single compilation units to amortize header parsing",
		})
	}

	return out
}

// compilerOptimizations derives compiler-specific advice. Link-time
// optimization variants are offered only when the project has LTO
// enabled.
func compilerOptimizations(in Inputs) []types.Suggestion {
	lto := in.Optimization.EnableLTO
	switch in.Project.Compiler {
	case "gcc":
		var out []types.Suggestion
		if lto {
			out = append(out, types.Suggestion{
				Kind:        types.SuggestCompilerOptimization,
				Target:      "GCC",
				Priority:    types.SeverityMedium,
				Description: "use link-time optimization",
				Action:      "add compile options: -flto -O2",
			})
		}
		out = append(out, types.Suggestion{
			Kind:        types.SuggestCompilerOptimization,
			Target:      "GCC",
			Priority:    types.SeverityLow,
			Description: "use profile-guided optimization",
			Action:      "build with -fprofile-generate, run a representative workload, rebuild with -fprofile-use",
		})
		return out
	case "clang":
		if !lto {
			return nil
		}
		return []types.Suggestion{{
			Kind:        types.SuggestCompilerOptimization,
			Target:      "Clang",
			Priority:    types.SeverityMedium,
			Description: "use ThinLTO",
			Action:      "add compile options: -flto=thin -O2",
		}}
	case "msvc":
		if !lto {
			return nil
		}
		return []types.Suggestion{{
			Kind:        types.SuggestCompilerOptimization,
			Target:      "MSVC",
			Priority:    types.SeverityMedium,
			Description: "enable whole-program optimization",
			Action:      "add compile options: /GL /O2",
		}}
	case "icc":
		if !lto {
			return nil
		}
		return []types.Suggestion{{
			Kind:        types.SuggestCompilerOptimization,
			Target:      "ICC",
			Priority:    types.SeverityMedium,
			Description: "use interprocedural optimization",
			Action:      "add compile options: -ipo -O3",
		}}
	default:
		return nil
	}
}

// codeRestructuring flags the slowest estimated translation units.
func codeRestructuring(in Inputs) []types.Suggestion {
	type slowFile struct {
		path string
		est  float64
	}
	var slow []slowFile
	for path, est := range in.Estimates {
		if est > slowFileFloor {
			slow = append(slow, slowFile{path, est})
		}
	}
	sort.Slice(slow, func(i, j int) bool {
		if slow[i].est != slow[j].est {
			return slow[i].est > slow[j].est
		}
		return slow[i].path < slow[j].path
	})
	if len(slow) > slowFileLimit {
		slow = slow[:slowFileLimit]
	}

	out := make([]types.Suggestion, 0, len(slow))
	for _, s := range slow {
		out = append(out, types.Suggestion{
			Kind:        types.SuggestCodeRestructuring,
			Target:      s.path,
			Priority:    types.SeverityMedium,
			Description: fmt.Sprintf("estimated compile time is high (%.2fs)", s.est),
			Action:      "split the file or trim its include set",
		})
	}
	return out
}

// cachingStrategies suggests distributed caching when compilation
// caching is enabled.
func cachingStrategies(in Inputs) []types.Suggestion {
	if !in.Optimization.CacheCompilation {
		return nil
	}
	return []types.Suggestion{{
		Kind:        types.SuggestCachingStrategy,
		Target:      "PROJECT",
		Priority:    types.SeverityMedium,
		Description: "configure a distributed compile cache",
		Action:      "consider distcc or icecc to spread compiles across machines",
	}}
}

func parallelBuildCommand(buildSystem string) string {
	commands := map[string]string{
		"cmake":   "cmake --build . --parallel",
		"make":    "make -j$(nproc)",
		"ninja":   "ninja -j$(nproc)",
		"qmake":   "make -j$(nproc)",
		"msbuild": "msbuild /m",
		"bazel":   "bazel build --jobs=$(nproc)",
		"meson":   "ninja -j$(nproc)",
	}
	if cmd, ok := commands[buildSystem]; ok {
		return cmd
	}
	return "make -j$(nproc)"
}

// PCHCandidates ranks include names by how many files include them and
// returns the top max entries, the input a precompiled-header generator
// would consume. Ties break by name for stable output.
func PCHCandidates(freq types.HeaderFrequency, max int) []types.HeaderCount {
	return freq.MostCommon(max)
}
