package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/cppdeps/internal/buildsys"
	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/debug"
	"github.com/standardbeagle/cppdeps/internal/engine"
	"github.com/standardbeagle/cppdeps/internal/types"
	"github.com/standardbeagle/cppdeps/internal/version"
	"github.com/standardbeagle/cppdeps/internal/watch"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == ".cppdeps.kdl" {
		configPath = filepath.Join(rootFlag, ".cppdeps.kdl")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if c.Bool("sequential") {
		cfg.Analysis.ParallelAnalysis = false
	}

	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "cppdeps",
		Usage:                  "C/C++ include dependency and compile cost analysis",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".cppdeps.kdl",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to analyze (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Analyze only files matching glob patterns (e.g., --include 'src/**')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.BoolFlag{
				Name:  "sequential",
				Usage: "Disable the parallel per-file analysis phase",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "analyze",
				Aliases: []string{"a"},
				Usage:   "Analyze the project and report issues, suggestions and cost estimates",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output the full result as JSON",
					},
				},
				Action: analyzeCommand,
			},
			{
				Name:   "watch",
				Usage:  "Re-analyze whenever project files change",
				Action: watchCommand,
			},
			{
				Name:  "buildsys",
				Usage: "Inspect build system files for missed compile-time optimizations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "system",
						Usage: "Build system to inspect (cmake, make, ninja, bazel, meson, qmake, msbuild); detected when empty",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output the report as JSON",
					},
				},
				Action: buildsysCommand,
			},
		},
		Action: analyzeCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyzeCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	result, err := runAnalysis(c.Context, cfg)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(result)
	}
	printSummary(result)
	return nil
}

func runAnalysis(ctx context.Context, cfg *config.Config) (*engine.AnalysisResult, error) {
	debug.LogAnalysis("cli: analyzing %s", cfg.Project.Root)
	return engine.New(cfg).Analyze(ctx)
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	result, err := runAnalysis(c.Context, cfg)
	if err != nil {
		return err
	}
	printSummary(result)

	// The watch subcommand implies watching even when the config file
	// leaves it off.
	cfg.Watch.Enabled = true

	watcher, err := watch.New(cfg)
	if err != nil {
		return err
	}
	watcher.OnChange = func(changed map[string]watch.EventType) {
		fmt.Printf("\n%d file(s) changed, re-analyzing...\n", len(changed))
		result, err := runAnalysis(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "re-analysis failed: %v\n", err)
			return
		}
		printSummary(result)
	}
	if err := watcher.Start(); err != nil {
		return err
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", cfg.Project.Root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	return watcher.Stop()
}

func buildsysCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	var analyzer buildsys.Analyzer
	if name := c.String("system"); name != "" {
		if analyzer = buildsys.ForSystem(name); analyzer == nil {
			return fmt.Errorf("unknown build system %q", name)
		}
	} else if cfg.Project.BuildSystem != "" {
		analyzer = buildsys.ForSystem(cfg.Project.BuildSystem)
	}
	if analyzer == nil {
		if analyzer = buildsys.Detect(cfg.Project.Root); analyzer == nil {
			return fmt.Errorf("no recognized build system under %s", cfg.Project.Root)
		}
	}

	report, err := analyzer.Analyze(cfg.Project.Root)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(report)
	}

	if !report.Found {
		fmt.Printf("No %s files found under %s\n", report.System, cfg.Project.Root)
		return nil
	}
	fmt.Printf("%s: %d file(s) inspected\n", report.System, len(report.Files))
	for _, f := range report.Findings {
		fmt.Printf("  [%s] %s\n      %s\n", f.Kind, f.File, f.Message)
	}
	if len(report.Findings) == 0 {
		fmt.Println("  no findings")
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(r *engine.AnalysisResult) {
	var sources, headers int
	for _, f := range r.Files {
		if f.Class == types.FileClassSource {
			sources++
		} else {
			headers++
		}
	}

	fmt.Printf("Analyzed %s: %d files (%d sources, %d headers), %d include edges in %s\n",
		r.Root, len(r.Files), sources, headers, r.Graph.EdgeCount, r.Duration.Round(1e6))

	if len(r.Issues) > 0 {
		bySeverity := make(map[types.Severity]int)
		for _, issue := range r.Issues {
			bySeverity[issue.Severity]++
		}
		fmt.Printf("\nIssues: %d (%d high, %d medium, %d low)\n", len(r.Issues),
			bySeverity[types.SeverityHigh], bySeverity[types.SeverityMedium], bySeverity[types.SeverityLow])
		for _, issue := range r.Issues {
			fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Subject, issue.Message)
		}
	}

	if len(r.Cycles) > 0 {
		fmt.Printf("\nCircular dependencies: %d\n", len(r.Cycles))
	}

	if len(r.PCHCandidates) > 0 {
		fmt.Println("\nTop precompiled header candidates:")
		n := len(r.PCHCandidates)
		if n > 10 {
			n = 10
		}
		for _, hc := range r.PCHCandidates[:n] {
			fmt.Printf("  %4d  %s\n", hc.Count, hc.Name)
		}
	}

	if r.TemplateUsage.Total() > 0 {
		fmt.Printf("\nTemplate usage: %d declarations, %d STL, %d Boost\n",
			r.TemplateUsage.Declarations, r.TemplateUsage.STL, r.TemplateUsage.Boost)
	}

	if len(r.Suggestions) > 0 {
		fmt.Printf("\nSuggestions: %d\n", len(r.Suggestions))
		for _, s := range r.Suggestions {
			fmt.Printf("  [%s] %s (%s)\n      %s\n", s.Priority, s.Kind, s.Target, s.Action)
		}
	}

	if len(r.Estimates) > 0 {
		fmt.Printf("\nEstimated full build: %.2fs across %d translation units\n", r.TotalEstimate, len(r.Estimates))
		printSlowest(r.Estimates, 5)
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("\nWarnings: %d\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  %s (%s): %s\n", w.Path, w.Stage, w.Err)
		}
	}
}

func printSlowest(estimates map[string]float64, n int) {
	type entry struct {
		path string
		est  float64
	}
	all := make([]entry, 0, len(estimates))
	for path, est := range estimates {
		all = append(all, entry{path, est})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].est != all[j].est {
			return all[i].est > all[j].est
		}
		return all[i].path < all[j].path
	})
	if len(all) > n {
		all = all[:n]
	}
	for _, e := range all {
		fmt.Printf("  %6.2fs  %s\n", e.est, e.path)
	}
}
