// Threshold and graph-based diagnostic checks. All checks are
// independent and additive: a file can accumulate several issues and
// no check suppresses another. Issues keep detection order.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/types"
)

// Engine evaluates files and graph state against configured thresholds.
type Engine struct {
	cfg *config.Analysis
}

func New(cfg *config.Analysis) *Engine {
	return &Engine{cfg: cfg}
}

// FileIssues runs the per-file checks in fixed order: excessive
// includes, high complexity, large header. Comparisons are strict:
// a count exactly equal to its threshold does not trigger.
func (e *Engine) FileIssues(f types.SourceFile, m types.FileMetrics) []types.Issue {
	var issues []types.Issue

	if m.IncludeCount > e.cfg.MaxHeaderIncludes {
		issues = append(issues, types.Issue{
			Kind:     types.IssueExcessiveIncludes,
			Subject:  f.Path,
			Severity: types.SeverityMedium,
			Message: fmt.Sprintf("file includes %d headers (threshold %d)",
				m.IncludeCount, e.cfg.MaxHeaderIncludes),
			Remedy: "replace unnecessary includes with forward declarations; consider the PIMPL pattern",
		})
	}

	if m.Complexity > e.cfg.MaxFileComplexity {
		issues = append(issues, types.Issue{
			Kind:     types.IssueHighComplexity,
			Subject:  f.Path,
			Severity: types.SeverityHigh,
			Message: fmt.Sprintf("high lexical complexity (score %d, threshold %d); likely to dominate compile time",
				m.Complexity, e.cfg.MaxFileComplexity),
			Remedy: "split the file or reduce template usage",
		})
	}

	if f.Class == types.FileClassHeader && f.Size > int64(e.cfg.MaxHeaderSize) {
		issues = append(issues, types.Issue{
			Kind:     types.IssueLargeHeader,
			Subject:  f.Path,
			Severity: types.SeverityMedium,
			Message: fmt.Sprintf("large header (%d bytes, threshold %d); cost is paid by every including translation unit",
				f.Size, e.cfg.MaxHeaderSize),
			Remedy: "split the header or hide implementation detail behind forward declarations or PIMPL",
		})
	}

	return issues
}

// CycleIssues emits one High issue per detected cycle, enumerating the
// cycle path in traversal order.
func (e *Engine) CycleIssues(cycles []types.Cycle) []types.Issue {
	issues := make([]types.Issue, 0, len(cycles))
	for i, cycle := range cycles {
		issues = append(issues, types.Issue{
			Kind:     types.IssueCircularDependency,
			Subject:  fmt.Sprintf("cycle %d", i+1),
			Severity: types.SeverityHigh,
			Message:  "circular include dependency: " + strings.Join(cycle, " -> "),
			Remedy:   "break the cycle with forward declarations or by restructuring the headers",
		})
	}
	return issues
}

// UnusedHeaderIssues emits one Low issue per header nothing includes.
func (e *Engine) UnusedHeaderIssues(paths []string) []types.Issue {
	issues := make([]types.Issue, 0, len(paths))
	for _, p := range paths {
		issues = append(issues, types.Issue{
			Kind:     types.IssueUnusedHeader,
			Subject:  p,
			Severity: types.SeverityLow,
			Message:  "header is not included by any project file",
			Remedy:   "delete the header or verify it is still needed",
		})
	}
	return issues
}
