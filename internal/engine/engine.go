// Package engine runs the full analysis pipeline: discovery, the
// per-file measurement phase, graph assembly, diagnostics, cost
// estimation and suggestion derivation.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/cppdeps/internal/catalog"
	"github.com/standardbeagle/cppdeps/internal/complexity"
	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/cost"
	"github.com/standardbeagle/cppdeps/internal/debug"
	"github.com/standardbeagle/cppdeps/internal/diagnostics"
	cerrors "github.com/standardbeagle/cppdeps/internal/errors"
	"github.com/standardbeagle/cppdeps/internal/graph"
	"github.com/standardbeagle/cppdeps/internal/resolve"
	"github.com/standardbeagle/cppdeps/internal/suggest"
	"github.com/standardbeagle/cppdeps/internal/types"
)

// AnalysisResult is the complete output of one run. Maps are keyed by
// canonical file path; slices follow catalog order unless noted.
type AnalysisResult struct {
	Root            string                       `json:"root"`
	Files           []types.SourceFile           `json:"files"`
	Graph           *graph.Snapshot              `json:"graph"`
	Metrics         map[string]types.FileMetrics `json:"metrics"`
	Issues          []types.Issue                `json:"issues"`
	Suggestions     []types.Suggestion           `json:"suggestions"`
	Estimates       map[string]float64           `json:"estimates"`
	TotalEstimate   float64                      `json:"total_estimate"`
	HeaderFrequency types.HeaderFrequency        `json:"header_frequency"`
	TemplateUsage   complexity.TemplateUsage     `json:"template_usage"`
	PCHCandidates   []types.HeaderCount          `json:"pch_candidates"`
	Cycles          []types.Cycle                `json:"cycles"`
	UnusedHeaders   []string                     `json:"unused_headers"`
	Warnings        []types.Warning              `json:"warnings"`
	Duration        time.Duration                `json:"duration_ns"`
}

type Engine struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// fileResult is one file's contribution to the shared state, collected
// privately during the per-file phase and merged after the barrier.
type fileResult struct {
	metrics   types.FileMetrics
	issues    []types.Issue
	includes  []types.IncludeDirective // Resolved filled in
	lines     int
	checksum  uint64
	templates complexity.TemplateUsage
	warning   *types.Warning
}

// Analyze runs the pipeline against cfg.Project.Root. A missing or
// unreadable root is the one fatal condition; per-file failures become
// warnings and the run continues. Output is identical for the parallel
// and sequential per-file phases.
func (e *Engine) Analyze(ctx context.Context) (*AnalysisResult, error) {
	started := time.Now()

	cat, err := catalog.Discover(ctx, e.cfg)
	if err != nil {
		return nil, err
	}
	debug.LogAnalysis("engine: cataloged %d files under %s", len(cat.Files), cat.Root)

	results := make([]fileResult, len(cat.Files))
	if e.cfg.Analysis.ParallelAnalysis {
		if err := e.runParallel(ctx, cat, results); err != nil {
			return nil, err
		}
	} else {
		if err := e.runSequential(ctx, cat, results); err != nil {
			return nil, err
		}
	}

	return e.assemble(cat, results, started), nil
}

func (e *Engine) runParallel(ctx context.Context, cat *catalog.Catalog, results []fileResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxWorkerCount())
	for i := range cat.Files {
		i := i
		g.Go(func() error {
			return e.analyzeOne(gctx, cat, cat.Files[i], &results[i])
		})
	}
	return g.Wait()
}

func (e *Engine) runSequential(ctx context.Context, cat *catalog.Catalog, results []fileResult) error {
	for i := range cat.Files {
		if err := e.analyzeOne(ctx, cat, cat.Files[i], &results[i]); err != nil {
			return err
		}
	}
	return nil
}

// analyzeOne measures a single file under the per-file timeout. On
// timeout the worker goroutine is abandoned; it holds only private
// state, so the leak is bounded by whatever read it is blocked on.
func (e *Engine) analyzeOne(ctx context.Context, cat *catalog.Catalog, f types.SourceFile, out *fileResult) error {
	timeout := time.Duration(e.cfg.Analysis.AnalysisTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultAnalysisTimeout) * time.Second
	}

	done := make(chan fileResult, 1)
	go func() {
		done <- e.measure(cat, f)
	}()

	select {
	case r := <-done:
		*out = r
		return nil
	case <-time.After(timeout):
		debug.LogAnalysis("engine: analysis of %s exceeded %s", f.Path, timeout)
		*out = fileResult{warning: &types.Warning{
			Path:  f.Path,
			Stage: "timeout",
			Err:   fmt.Sprintf("analysis exceeded %s", timeout),
		}}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

/// measure does the actual per-file work: load, parse includes, resolve
// them against the catalog, score complexity, run the file-local
// threshold checks. Touches only the read-only catalog and its own
// fileResult.
func (e *Engine) measure(cat *catalog.Catalog, f types.SourceFile) fileResult {
	content, err := catalog.Load(f.Path)
	if err != nil {
		aerr := cerrors.NewAnalysisError("read", err).
			WithFile(f.Path).
			WithRecoverable(true)
		return fileResult{warning: &types.Warning{
			Path:  f.Path,
			Stage: "read",
			Err:   aerr.Error(),
		}}
	}

	resolver := resolve.New(cat)
	includes := resolve.ParseIncludes(f.Path, content.Data)
	for i := range includes {
		includes[i].Resolved = resolver.Resolve(includes[i])
	}

	scorer := complexity.NewScorer(e.cfg.Analysis.EnableTemplateAnalysis)
	metrics := types.FileMetrics{
		IncludeCount: len(includes),
		Complexity:   scorer.Score(content.Data),
		ForwardDecls: complexity.CountForwardDecls(content.Data),
		Lines:        content.Lines,
	}

	r := fileResult{
		metrics:  metrics,
		includes: includes,
		lines:    content.Lines,
		checksum: content.Checksum,
	}
	if e.cfg.Analysis.EnableTemplateAnalysis {
		r.templates = complexity.CountTemplates(content.Data)
	}

	diag := diagnostics.New(&e.cfg.Analysis)
	r.issues = diag.FileIssues(f, metrics)
	return r
}

// assemble merges the per-file results into the shared structures.
// Everything here iterates in catalog order, so the result is
// deterministic regardless of worker scheduling.
func (e *Engine) assemble(cat *catalog.Catalog, results []fileResult, started time.Time) *AnalysisResult {
	res := &AnalysisResult{
		Root:            cat.Root,
		Files:           make([]types.SourceFile, len(cat.Files)),
		Metrics:         make(map[string]types.FileMetrics, len(cat.Files)),
		Estimates:       make(map[string]float64),
		HeaderFrequency: make(types.HeaderFrequency),
	}
	res.Warnings = append(res.Warnings, cat.Warnings...)
	copy(res.Files, cat.Files)

	g := graph.New()
	diag := diagnostics.New(&e.cfg.Analysis)

	for i, f := range cat.Files {
		r := results[i]
		if r.warning != nil {
			res.Warnings = append(res.Warnings, *r.warning)
			continue
		}
		res.Files[i].Lines = r.lines
		res.Files[i].Checksum = r.checksum
		res.Metrics[f.Path] = r.metrics
		res.Issues = append(res.Issues, r.issues...)
		res.TemplateUsage.Merge(r.templates)
		for _, inc := range r.includes {
			res.HeaderFrequency.Add(inc.Name)
			if inc.Resolved != "" && cat.Contains(inc.Resolved) {
				g.AddEdge(f.Path, inc.Resolved)
			}
		}
	}

	if e.cfg.Analysis.EnableCircularDepCheck {
		paths := make([]string, len(cat.Files))
		for i, f := range cat.Files {
			paths[i] = f.Path
		}
		res.Cycles = g.DetectCycles(paths)
		res.Issues = append(res.Issues, diag.CycleIssues(res.Cycles)...)
	}

	if e.cfg.Analysis.EnableUnusedHeaderCheck {
		res.UnusedHeaders = g.UnusedHeaders(cat.Headers())
		res.Issues = append(res.Issues, diag.UnusedHeaderIssues(res.UnusedHeaders)...)
	}

	for _, f := range cat.Sources() {
		// Files that failed to read or timed out have no metrics and
		// degrade to estimate zero rather than vanishing from the map.
		est := 0.0
		if m, ok := res.Metrics[f.Path]; ok {
			est = cost.Estimate(m.Lines, m.Complexity, g.OutDegree(f.Path))
		}
		res.Estimates[f.Path] = est
		res.TotalEstimate += est
	}

	res.Graph = g.Snapshot()
	res.Suggestions = suggest.Derive(suggest.Inputs{
		Headers:       cat.Headers(),
		ReverseCounts: res.Graph.ReverseCounts,
		Metrics:       res.Metrics,
		Estimates:     res.Estimates,
		Project:       e.cfg.Project,
		Optimization:  e.cfg.Optimization,
	})
	res.PCHCandidates = suggest.PCHCandidates(res.HeaderFrequency, e.cfg.Analysis.PCHMaxHeaders)

	res.Duration = time.Since(started)
	debug.LogAnalysis("engine: %d issues, %d suggestions, %.2fs estimated build, took %s",
		len(res.Issues), len(res.Suggestions), res.TotalEstimate, res.Duration)
	return res
}
