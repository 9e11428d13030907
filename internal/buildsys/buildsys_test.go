package buildsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestForSystem(t *testing.T) {
	for _, name := range []string{"cmake", "qmake", "ninja", "msbuild", "make", "bazel", "meson"} {
		a := ForSystem(name)
		require.NotNil(t, a, name)
		assert.Equal(t, name, a.Name())
	}
	assert.Nil(t, ForSystem("scons"))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		expected string
	}{
		{"cmake at root", map[string]string{"CMakeLists.txt": ""}, "cmake"},
		{"nested cmake", map[string]string{"lib/CMakeLists.txt": ""}, "cmake"},
		{"qmake", map[string]string{"app/app.pro": ""}, "qmake"},
		{"bazel workspace", map[string]string{"WORKSPACE": ""}, "bazel"},
		{"meson", map[string]string{"meson.build": ""}, "meson"},
		{"make", map[string]string{"Makefile": ""}, "make"},
		{"ninja", map[string]string{"build.ninja": ""}, "ninja"},
		{"msbuild", map[string]string{"proj/app.vcxproj": ""}, "msbuild"},
		// CMake generates Makefiles; the declarative system wins.
		{"cmake over make", map[string]string{"CMakeLists.txt": "", "Makefile": ""}, "cmake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tt.files {
				writeFile(t, root, rel, content)
			}
			a := Detect(root)
			require.NotNil(t, a)
			assert.Equal(t, tt.expected, a.Name())
		})
	}
}

func TestDetect_NothingRecognized(t *testing.T) {
	assert.Nil(t, Detect(t.TempDir()))
}

func TestCMakeAnalyzer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CMakeLists.txt", "add_executable(app main.cpp)\n")

	report, err := CMakeAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	require.True(t, report.Found)
	require.Len(t, report.Files, 1)

	kinds := findingKinds(report)
	assert.Contains(t, kinds, "CMAKE_PCH")
	assert.Contains(t, kinds, "CMAKE_PARALLEL")
}

func TestCMakeAnalyzer_ConfiguredProjectIsClean(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CMakeLists.txt",
		"add_executable(app main.cpp)\ntarget_precompile_headers(app PRIVATE pch.h)\nset(ENV{CMAKE_BUILD_PARALLEL_LEVEL} 8)\n")

	report, err := CMakeAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	assert.True(t, report.Found)
	assert.Empty(t, report.Findings)
}

func TestCMakeAnalyzer_NoFiles(t *testing.T) {
	report, err := CMakeAnalyzer{}.Analyze(t.TempDir())
	require.NoError(t, err)
	assert.False(t, report.Found)
	assert.Empty(t, report.Files)
}

func TestMakeAnalyzer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Makefile", "all:\n\tgcc -o app main.c\n")

	report, err := MakeAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	require.True(t, report.Found)

	kinds := findingKinds(report)
	assert.Contains(t, kinds, "MAKE_PCH")
	assert.Contains(t, kinds, "MAKE_PARALLEL")
}

func TestMakeAnalyzer_ParallelConfigured(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Makefile", "# precompiled header support below\nall:\n\t$(MAKE) -j$(nproc) app\n")

	report, err := MakeAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
}

func TestNinjaAnalyzer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "build.ninja", "rule cc\n  command = gcc -c $in -o $out\n")

	report, err := NinjaAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	require.True(t, report.Found)
	assert.Equal(t, []string{"NINJA_POOL"}, findingKinds(report))
}

func TestBazelAnalyzer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "BUILD", "cc_library(\n    name = \"core\",\n    srcs = [\"core.cc\"],\n)\n")

	report, err := BazelAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	require.True(t, report.Found)
	assert.Equal(t, []string{"BAZEL_PCH"}, findingKinds(report))
}

func TestMSBuildAnalyzer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.vcxproj", "<Project>\n  <ItemGroup>\n    <ClCompile Include=\"main.cpp\" />\n  </ItemGroup>\n</Project>\n")

	report, err := MSBuildAnalyzer{}.Analyze(root)
	require.NoError(t, err)
	require.True(t, report.Found)
	assert.Equal(t, []string{"MSBUILD_PCH"}, findingKinds(report))
}

func findingKinds(r Report) []string {
	var kinds []string
	for _, f := range r.Findings {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}
