package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/types"
)

func testEngine() *Engine {
	cfg := config.Default()
	return New(&cfg.Analysis)
}

func TestFileIssues_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		file     types.SourceFile
		metrics  types.FileMetrics
		expected []types.IssueKind
	}{
		{
			name:     "all below thresholds",
			file:     types.SourceFile{Path: "a.h", Class: types.FileClassHeader, Size: 100},
			metrics:  types.FileMetrics{IncludeCount: 3, Complexity: 10},
			expected: nil,
		},
		{
			name:     "exactly at threshold does not trigger",
			file:     types.SourceFile{Path: "a.h", Class: types.FileClassHeader, Size: 10000},
			metrics:  types.FileMetrics{IncludeCount: 20, Complexity: 50},
			expected: nil,
		},
		{
			name:     "one over include threshold",
			file:     types.SourceFile{Path: "a.h", Class: types.FileClassHeader, Size: 100},
			metrics:  types.FileMetrics{IncludeCount: 21, Complexity: 10},
			expected: []types.IssueKind{types.IssueExcessiveIncludes},
		},
		{
			name:     "over complexity threshold",
			file:     types.SourceFile{Path: "big.cpp", Class: types.FileClassSource, Size: 100},
			metrics:  types.FileMetrics{IncludeCount: 1, Complexity: 51},
			expected: []types.IssueKind{types.IssueHighComplexity},
		},
		{
			name:     "oversized header",
			file:     types.SourceFile{Path: "big.h", Class: types.FileClassHeader, Size: 10001},
			metrics:  types.FileMetrics{},
			expected: []types.IssueKind{types.IssueLargeHeader},
		},
		{
			name:     "oversized source never reports large header",
			file:     types.SourceFile{Path: "big.cpp", Class: types.FileClassSource, Size: 50000},
			metrics:  types.FileMetrics{},
			expected: nil,
		},
		{
			name:     "issues accumulate in check order",
			file:     types.SourceFile{Path: "worst.h", Class: types.FileClassHeader, Size: 20000},
			metrics:  types.FileMetrics{IncludeCount: 25, Complexity: 80},
			expected: []types.IssueKind{types.IssueExcessiveIncludes, types.IssueHighComplexity, types.IssueLargeHeader},
		},
	}

	e := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := e.FileIssues(tt.file, tt.metrics)
			var kinds []types.IssueKind
			for _, issue := range issues {
				kinds = append(kinds, issue.Kind)
				assert.Equal(t, tt.file.Path, issue.Subject)
				assert.NotEmpty(t, issue.Remedy)
			}
			assert.Equal(t, tt.expected, kinds)
		})
	}
}

func TestFileIssues_Severities(t *testing.T) {
	e := testEngine()
	issues := e.FileIssues(
		types.SourceFile{Path: "worst.h", Class: types.FileClassHeader, Size: 20000},
		types.FileMetrics{IncludeCount: 25, Complexity: 80},
	)
	require.Len(t, issues, 3)
	assert.Equal(t, types.SeverityMedium, issues[0].Severity)
	assert.Equal(t, types.SeverityHigh, issues[1].Severity)
	assert.Equal(t, types.SeverityMedium, issues[2].Severity)
}

func TestCycleIssues(t *testing.T) {
	e := testEngine()
	issues := e.CycleIssues([]types.Cycle{
		{"a.h", "b.h"},
		{"x.h", "y.h", "z.h"},
	})
	require.Len(t, issues, 2)
	assert.Equal(t, "cycle 1", issues[0].Subject)
	assert.Equal(t, types.SeverityHigh, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "a.h -> b.h")
	assert.Contains(t, issues[1].Message, "x.h -> y.h -> z.h")
}

func TestUnusedHeaderIssues(t *testing.T) {
	e := testEngine()
	issues := e.UnusedHeaderIssues([]string{"orphan.h"})
	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueUnusedHeader, issues[0].Kind)
	assert.Equal(t, types.SeverityLow, issues[0].Severity)
	assert.Equal(t, "orphan.h", issues[0].Subject)

	assert.Empty(t, e.UnusedHeaderIssues(nil))
}
