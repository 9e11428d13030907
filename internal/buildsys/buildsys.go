// Package buildsys inspects build-system files for missed compile-time
// optimizations: missing precompiled-header setup, no parallel build
// configuration, disabled LTO. It never parses build files fully; the
// checks are substring heuristics over the raw text.
package buildsys

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Finding is one piece of advice tied to a specific build file.
type Finding struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// Report is the outcome of one analyzer run. Found is false when no
// files for that build system exist under the root.
type Report struct {
	System   string    `json:"system"`
	Found    bool      `json:"found"`
	Files    []string  `json:"files"`
	Findings []Finding `json:"findings"`
}

// Analyzer inspects one build system's files.
type Analyzer interface {
	Name() string
	Analyze(root string) (Report, error)
}

// ForSystem returns the analyzer for a configured build system name,
// or nil when the name is unknown.
func ForSystem(name string) Analyzer {
	switch name {
	case "cmake":
		return CMakeAnalyzer{}
	case "qmake":
		return QMakeAnalyzer{}
	case "ninja":
		return NinjaAnalyzer{}
	case "msbuild":
		return MSBuildAnalyzer{}
	case "make":
		return MakeAnalyzer{}
	case "bazel":
		return BazelAnalyzer{}
	case "meson":
		return MesonAnalyzer{}
	default:
		return nil
	}
}

// Detect picks an analyzer by the build files present under root.
// Declarative build systems are checked before Make and Ninja because
// they usually generate those files.
func Detect(root string) Analyzer {
	checks := []struct {
		patterns []string
		analyzer Analyzer
	}{
		{[]string{"CMakeLists.txt", "**/CMakeLists.txt"}, CMakeAnalyzer{}},
		{[]string{"**/*.pro"}, QMakeAnalyzer{}},
		{[]string{"BUILD", "WORKSPACE", "**/BUILD", "**/BUILD.bazel"}, BazelAnalyzer{}},
		{[]string{"meson.build", "**/meson.build"}, MesonAnalyzer{}},
		{[]string{"Makefile", "**/Makefile"}, MakeAnalyzer{}},
		{[]string{"build.ninja", "**/build.ninja"}, NinjaAnalyzer{}},
		{[]string{"**/*.sln", "**/*.vcxproj"}, MSBuildAnalyzer{}},
	}
	fsys := os.DirFS(root)
	for _, c := range checks {
		for _, pattern := range c.patterns {
			if matches, err := doublestar.Glob(fsys, pattern); err == nil && len(matches) > 0 {
				return c.analyzer
			}
		}
	}
	return nil
}

// findFiles globs under root and returns absolute paths in sorted
// order. Glob errors count as no matches.
func findFiles(root string, patterns ...string) []string {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			abs := filepath.Join(root, filepath.FromSlash(m))
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out
}

// readText returns a file's text, or "" when it cannot be read. A
// missing or unreadable build file just produces no findings.
func readText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

type CMakeAnalyzer struct{}

func (CMakeAnalyzer) Name() string { return "cmake" }

func (CMakeAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "cmake"}
	report.Files = findFiles(root, "CMakeLists.txt", "**/CMakeLists.txt")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		text := readText(f)
		if !strings.Contains(text, "target_precompile_headers") && !strings.Contains(text, "precompile") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "CMAKE_PCH",
				File:    f,
				Message: "no precompiled headers configured; target_precompile_headers can cut compile times",
			})
		}
		if !strings.Contains(text, "CMAKE_BUILD_PARALLEL_LEVEL") && !strings.Contains(text, "cmake --build") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "CMAKE_PARALLEL",
				File:    f,
				Message: "no parallel build configuration detected; consider setting CMAKE_BUILD_PARALLEL_LEVEL",
			})
		}
	}
	return report, nil
}

type MakeAnalyzer struct{}

func (MakeAnalyzer) Name() string { return "make" }

func (MakeAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "make"}
	report.Files = findFiles(root, "Makefile", "makefile", "**/Makefile", "**/makefile")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		text := readText(f)
		if !strings.Contains(text, "PCH_HEADER") && !strings.Contains(strings.ToLower(text), "precompiled") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "MAKE_PCH",
				File:    f,
				Message: "no precompiled header rules found; a PCH rule can speed up rebuilds",
			})
		}
		if !strings.Contains(text, "$(MAKE) -j") && !strings.Contains(text, "nproc") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "MAKE_PARALLEL",
				File:    f,
				Message: "no parallel invocation guidance found; document make -j$(nproc) or add a JOBS variable",
			})
		}
	}
	return report, nil
}

type NinjaAnalyzer struct{}

func (NinjaAnalyzer) Name() string { return "ninja" }

func (NinjaAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "ninja"}
	report.Files = findFiles(root, "build.ninja", "**/build.ninja")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		if !strings.Contains(readText(f), "pool") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "NINJA_POOL",
				File:    f,
				Message: "no ninja pools defined; pools limit concurrency for expensive steps",
			})
		}
	}
	return report, nil
}

type BazelAnalyzer struct{}

func (BazelAnalyzer) Name() string { return "bazel" }

func (BazelAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "bazel"}
	report.Files = findFiles(root, "BUILD", "**/BUILD", "**/BUILD.bazel")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		text := readText(f)
		if strings.Contains(text, "cc_library") && !strings.Contains(text, "pch") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "BAZEL_PCH",
				File:    f,
				Message: "cc_library targets without PCH settings; consider macros enabling precompiled headers or thin LTO",
			})
		}
	}
	return report, nil
}

type MesonAnalyzer struct{}

func (MesonAnalyzer) Name() string { return "meson" }

func (MesonAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "meson"}
	report.Files = findFiles(root, "meson.build", "**/meson.build")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		text := readText(f)
		if !strings.Contains(text, "b_lto") && !strings.Contains(text, "lto") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "MESON_LTO",
				File:    f,
				Message: "LTO not enabled; b_lto=true improves release build performance",
			})
		}
	}
	return report, nil
}

type QMakeAnalyzer struct{}

func (QMakeAnalyzer) Name() string { return "qmake" }

func (QMakeAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "qmake"}
	report.Files = findFiles(root, "**/*.pro")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		text := readText(f)
		if !strings.Contains(text, "CONFIG +=") && !strings.Contains(text, "CONFIG+=") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "QMAKE_CONFIG",
				File:    f,
				Message: "no CONFIG flags set; precompile_header and optimization flags go through CONFIG +=",
			})
		}
		if strings.Contains(text, "QT +=") || strings.Contains(text, "QT+=") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "QMAKE_QT_MODULES",
				File:    f,
				Message: "Qt modules declared; unused modules add compile and link time",
			})
		}
	}
	return report, nil
}

type MSBuildAnalyzer struct{}

func (MSBuildAnalyzer) Name() string { return "msbuild" }

func (MSBuildAnalyzer) Analyze(root string) (Report, error) {
	report := Report{System: "msbuild"}
	report.Files = findFiles(root, "**/*.vcxproj", "**/*.sln")
	if len(report.Files) == 0 {
		return report, nil
	}
	report.Found = true
	for _, f := range report.Files {
		text := readText(f)
		if strings.Contains(text, "<ClCompile") && !strings.Contains(text, "PrecompiledHeader") {
			report.Findings = append(report.Findings, Finding{
				Kind:    "MSBUILD_PCH",
				File:    f,
				Message: "C++ compile items without a PrecompiledHeader setting; PCH is configured per ClCompile group",
			})
		}
	}
	return report, nil
}
