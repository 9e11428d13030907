package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default analysis thresholds. These are the empirical values the
// diagnostic checks compare against when no config file overrides them.
const (
	DefaultMaxHeaderIncludes = 20
	DefaultMaxFileComplexity = 50
	DefaultMaxHeaderSize     = 10000 // bytes
	DefaultPCHMaxHeaders     = 25
	DefaultAnalysisTimeout   = 30 // seconds per file
)

type Config struct {
	Version      int
	Project      Project
	Analysis     Analysis
	Optimization Optimization
	Watch        Watch
	Include      []string
	Exclude      []string
}

type Project struct {
	Root        string
	Name        string
	Compiler    string // "gcc", "clang", "msvc", "icc"
	BuildSystem string // "cmake", "make", "ninja", "bazel", "meson", "qmake", "msbuild"
}

// Analysis carries the threshold and toggle set the diagnostics engine
// evaluates against.
type Analysis struct {
	MaxHeaderIncludes       int  // Max #include directives before an ExcessiveIncludes issue
	MaxFileComplexity       int  // Max lexical complexity score before a HighComplexity issue
	MaxHeaderSize           int  // Max header size in bytes before a LargeHeader issue
	PCHMaxHeaders           int  // Number of top headers returned as PCH candidates
	EnableTemplateAnalysis  bool // Include template patterns in complexity scoring
	EnableCircularDepCheck  bool // Run cycle detection after the per-file phase
	EnableUnusedHeaderCheck bool // Report headers nothing includes
	ParallelAnalysis        bool // Use the worker pool for the per-file phase
	AnalysisTimeoutSec      int  // Per-file analysis timeout in seconds
	MaxWorkers              int  // 0 = auto-detect (NumCPU)
}

// Optimization mirrors the build-optimization toggles that feed the
// suggestion rules; the engine never acts on them itself.
type Optimization struct {
	CacheCompilation bool // Suggest ccache/distcc style caching
	UnityBuild       bool // Suggest merging translation units
	EnableLTO        bool // Suggest link-time optimization flags
}

type Watch struct {
	Enabled    bool
	DebounceMs int // Debounce time for file change events
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads configuration: a global base from ~/.cppdeps.kdl
// (if present) merged under the project's .cppdeps.kdl, falling back to
// built-in defaults.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	} else if dir := filepath.Dir(path); dir != "" {
		searchDir = dir
	}

	homeDir, err := os.UserHomeDir()
	var baseConfig *Config
	if err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	if kdlCfg, err := LoadKDL(searchDir); err == nil && kdlCfg != nil {
		projectConfig = kdlCfg
	} else if err != nil {
		return nil, err
	}

	if baseConfig != nil && projectConfig != nil {
		return mergeConfigs(baseConfig, projectConfig), nil
	} else if projectConfig != nil {
		return projectConfig, nil
	} else if baseConfig != nil {
		baseConfig.Project.Root = searchDir
		return baseConfig, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if searchDir != "." {
		if abs, err := filepath.Abs(searchDir); err == nil {
			cwd = abs
		}
	}

	cfg := Default()
	cfg.Project.Root = cwd
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Compiler:    "gcc",
			BuildSystem: "cmake",
		},
		Analysis: Analysis{
			MaxHeaderIncludes:       DefaultMaxHeaderIncludes,
			MaxFileComplexity:       DefaultMaxFileComplexity,
			MaxHeaderSize:           DefaultMaxHeaderSize,
			PCHMaxHeaders:           DefaultPCHMaxHeaders,
			EnableTemplateAnalysis:  true,
			EnableCircularDepCheck:  true,
			EnableUnusedHeaderCheck: true,
			ParallelAnalysis:        true,
			AnalysisTimeoutSec:      DefaultAnalysisTimeout,
			MaxWorkers:              0, // auto-detect
		},
		Optimization: Optimization{
			CacheCompilation: true,
			UnityBuild:       false,
			EnableLTO:        true,
		},
		Watch: Watch{
			Enabled:    false,
			DebounceMs: 300,
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

// MaxWorkerCount resolves the configured worker count, auto-detecting
// from available parallelism when unset.
func (c *Config) MaxWorkerCount() int {
	if c.Analysis.MaxWorkers > 0 {
		return c.Analysis.MaxWorkers
	}
	return runtime.NumCPU()
}

// defaultExclusions covers VCS metadata, build output and third-party
// trees that should never count toward include-graph analysis.
func defaultExclusions() []string {
	return []string{
		// Git metadata (never analyzable)
		"**/.git/**",

		// Hidden directories (catch-all for dot directories)
		"**/.*/**",

		// Third-party & vendored code
		"**/third_party/**",
		"**/external/**",
		"**/vendor/**",
		"**/node_modules/**",

		// Build output
		"**/build/**",
		"**/cmake-build-*/**",
		"**/CMakeFiles/**",
		"**/out/**",
		"**/dist/**",
		"**/bin/**",
		"**/obj/**",
		"**/target/**",
		"**/Debug/**",
		"**/Release/**",
		"**/x64/**",
		"**/x86/**",

		// Test & benchmark trees
		"**/test/**",
		"**/tests/**",
		"**/benchmark/**",

		// Editor and IDE state
		"**/.vscode/**",
		"**/.vs/**",
		"**/ipch/**",

		// Python tooling residue (scripts alongside C++ trees)
		"**/__pycache__/**",

		// Compiled artifacts
		"**/*.o",
		"**/*.obj",
		"**/*.gch",
		"**/*.pch",
	}
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		excludeMap := make(map[string]bool)
		for _, pattern := range base.Exclude {
			excludeMap[pattern] = true
		}
		for _, pattern := range project.Exclude {
			excludeMap[pattern] = true
		}

		merged.Exclude = make([]string, 0, len(excludeMap))
		for pattern := range excludeMap {
			merged.Exclude = append(merged.Exclude, pattern)
		}
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts detects build output directories
// from build-system manifests and adds them to the exclusion list.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	detectedPatterns := detector.DetectOutputDirectories()

	if len(detectedPatterns) > 0 {
		c.Exclude = append(c.Exclude, detectedPatterns...)
		c.Exclude = DeduplicatePatterns(c.Exclude)
	}
}

// DeduplicatePatterns removes duplicate glob patterns preserving the
// first occurrence order.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
