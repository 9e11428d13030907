package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	cerrors "github.com/standardbeagle/cppdeps/internal/errors"
)

// LoadKDL attempts to load configuration from a .cppdeps.kdl file in
// projectRoot. Returns (nil, nil) when no config file exists.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".cppdeps.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, cerrors.NewConfigError("config_file", kdlPath, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, cerrors.NewConfigError("syntax", kdlPath, err)
	}

	// Resolve relative roots against the directory holding the config
	// file so path handling stays consistent downstream.
	if cfg != nil && cfg.Project.Root != "" {
		var absRoot string
		if filepath.IsAbs(cfg.Project.Root) {
			absRoot = cfg.Project.Root
		} else {
			absRoot = filepath.Join(projectRoot, cfg.Project.Root)
		}
		cfg.Project.Root = filepath.Clean(absRoot)
	} else if cfg != nil {
		absRoot, err := filepath.Abs(projectRoot)
		if err == nil {
			cfg.Project.Root = absRoot
		} else {
			cfg.Project.Root = projectRoot
		}
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	defaultRoot, _ := os.Getwd()
	if defaultRoot == "" {
		defaultRoot = "."
	}

	cfg := Default()
	cfg.Project.Root = defaultRoot

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
				assignSimpleString(cn, "compiler", func(v string) { cfg.Project.Compiler = v })
				assignSimpleString(cn, "build_system", func(v string) { cfg.Project.BuildSystem = v })
			}
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_header_includes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxHeaderIncludes = v
					}
				case "max_file_complexity":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxFileComplexity = v
					}
				case "max_header_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxHeaderSize = v
					}
				case "pch_max_headers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.PCHMaxHeaders = v
					}
				case "enable_template_analysis":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Analysis.EnableTemplateAnalysis = b
					}
				case "enable_circular_dep_check":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Analysis.EnableCircularDepCheck = b
					}
				case "enable_unused_header_check":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Analysis.EnableUnusedHeaderCheck = b
					}
				case "parallel_analysis":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Analysis.ParallelAnalysis = b
					}
				case "analysis_timeout":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.AnalysisTimeoutSec = v
					}
				case "max_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxWorkers = v
					}
				}
			}
		case "optimization":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "cache_compilation":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Optimization.CacheCompilation = b
					}
				case "unity_build":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Optimization.UnityBuild = b
					}
				case "enable_lto":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Optimization.EnableLTO = b
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// User exclusions extend the built-in defaults rather than
			// replacing them; the defaults cover directories that must
			// never count toward include analysis.
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	cfg.Exclude = DeduplicatePatterns(cfg.Exclude)
	cfg.EnrichExclusionsWithBuildArtifacts()

	return cfg, nil
}

// Helper functions leveraging the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: exclude { "pattern" } puts strings in child nodes
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
