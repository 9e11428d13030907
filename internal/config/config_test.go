package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/standardbeagle/cppdeps/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20, cfg.Analysis.MaxHeaderIncludes)
	assert.Equal(t, 50, cfg.Analysis.MaxFileComplexity)
	assert.Equal(t, 10000, cfg.Analysis.MaxHeaderSize)
	assert.Equal(t, 25, cfg.Analysis.PCHMaxHeaders)
	assert.Equal(t, 30, cfg.Analysis.AnalysisTimeoutSec)
	assert.True(t, cfg.Analysis.EnableTemplateAnalysis)
	assert.True(t, cfg.Analysis.EnableCircularDepCheck)
	assert.True(t, cfg.Analysis.EnableUnusedHeaderCheck)
	assert.True(t, cfg.Analysis.ParallelAnalysis)
	assert.Equal(t, "gcc", cfg.Project.Compiler)
	assert.Equal(t, "cmake", cfg.Project.BuildSystem)
	assert.NotEmpty(t, cfg.Exclude)
}

func TestMaxWorkerCount(t *testing.T) {
	cfg := Default()
	assert.Greater(t, cfg.MaxWorkerCount(), 0)

	cfg.Analysis.MaxWorkers = 4
	assert.Equal(t, 4, cfg.MaxWorkerCount())
}

func TestLoadKDL_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadKDL(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadKDL_ParsesSections(t *testing.T) {
	root := t.TempDir()
	kdl := `
project {
    name "demo"
    compiler "clang"
    build_system "ninja"
}
analysis {
    max_header_includes 30
    max_file_complexity 80
    enable_template_analysis false
    parallel_analysis false
    max_workers 2
}
optimization {
    unity_build true
}
watch {
    enabled true
    debounce_ms 500
}
exclude "**/generated/**" "**/proto_out/**"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cppdeps.kdl"), []byte(kdl), 0644))

	cfg, err := LoadKDL(root)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, "clang", cfg.Project.Compiler)
	assert.Equal(t, "ninja", cfg.Project.BuildSystem)

	assert.Equal(t, 30, cfg.Analysis.MaxHeaderIncludes)
	assert.Equal(t, 80, cfg.Analysis.MaxFileComplexity)
	assert.False(t, cfg.Analysis.EnableTemplateAnalysis)
	assert.False(t, cfg.Analysis.ParallelAnalysis)
	assert.Equal(t, 2, cfg.Analysis.MaxWorkers)

	assert.True(t, cfg.Optimization.UnityBuild)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)

	// User exclusions extend the defaults.
	assert.Contains(t, cfg.Exclude, "**/generated/**")
	assert.Contains(t, cfg.Exclude, "**/proto_out/**")
	assert.Contains(t, cfg.Exclude, "**/.git/**")

	// Unset keys keep their defaults.
	assert.Equal(t, DefaultMaxHeaderSize, cfg.Analysis.MaxHeaderSize)
}

func TestLoadKDL_RelativeRootResolvedAgainstConfigDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	kdl := "project {\n    root \"src\"\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cppdeps.kdl"), []byte(kdl), 0644))

	cfg, err := LoadKDL(root)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, filepath.Join(root, "src"), cfg.Project.Root)
}

func TestLoadKDL_InvalidSyntax(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cppdeps.kdl"), []byte("project {\n"), 0644))

	_, err := LoadKDL(root)
	require.Error(t, err)

	var cfgErr *cerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "syntax", cfgErr.Field)
	assert.Equal(t, filepath.Join(root, ".cppdeps.kdl"), cfgErr.Value)
}

func TestMergeConfigs(t *testing.T) {
	base := Default()
	base.Exclude = []string{"**/base-only/**"}
	base.Include = []string{"src/**"}

	project := Default()
	project.Project.Name = "proj"
	project.Exclude = []string{"**/proj-only/**"}
	project.Include = nil

	merged := mergeConfigs(base, project)

	assert.Equal(t, "proj", merged.Project.Name)
	assert.Contains(t, merged.Exclude, "**/base-only/**")
	assert.Contains(t, merged.Exclude, "**/proj-only/**")
	assert.Equal(t, []string{"src/**"}, merged.Include)
}

func TestDeduplicatePatterns(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns(in))
}

func TestBuildArtifactDetector_CMakePresets(t *testing.T) {
	root := t.TempDir()
	presets := `{
  "version": 3,
  "configurePresets": [
    {"name": "default", "binaryDir": "${sourceDir}/out/build"},
    {"name": "ci", "binaryDir": "cmake-out"}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "CMakePresets.json"), []byte(presets), 0644))

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Contains(t, patterns, "**/out/build/**")
	assert.Contains(t, patterns, "**/cmake-out/**")
}

func TestBuildArtifactDetector_Cargo(t *testing.T) {
	root := t.TempDir()
	cargo := "[package]\nname = \"ffi-shim\"\nversion = \"0.1.0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte(cargo), 0644))

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Contains(t, patterns, "**/target/**")
}

func TestBuildArtifactDetector_NothingDetected(t *testing.T) {
	patterns := NewBuildArtifactDetector(t.TempDir()).DetectOutputDirectories()
	assert.Empty(t, patterns)
}
