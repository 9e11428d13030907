package types

import (
	"fmt"
	"sort"
	"strings"
)

// FileClass distinguishes translation units from headers.
type FileClass int

const (
	FileClassSource FileClass = iota
	FileClassHeader
)

func (c FileClass) String() string {
	if c == FileClassHeader {
		return "header"
	}
	return "source"
}

func (c FileClass) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Recognized C/C++ extensions. Matches the conventional set; anything
// else is not cataloged.
var (
	SourceExtensions = map[string]bool{
		".cpp": true, ".cc": true, ".cxx": true, ".c++": true, ".c": true,
	}
	HeaderExtensions = map[string]bool{
		".h": true, ".hpp": true, ".hh": true, ".hxx": true, ".h++": true, ".inl": true,
	}
)

// ClassifyExtension reports the file class for an extension (with dot),
// or ok=false when the extension is not a recognized C/C++ one.
func ClassifyExtension(ext string) (FileClass, bool) {
	ext = strings.ToLower(ext)
	if SourceExtensions[ext] {
		return FileClassSource, true
	}
	if HeaderExtensions[ext] {
		return FileClassHeader, true
	}
	return 0, false
}

// SourceFile identifies one cataloged file. Path is canonical and
// absolute. Size comes from discovery; Lines and Checksum are filled
// during the per-file analysis pass and immutable afterwards.
type SourceFile struct {
	Path     string    `json:"path"`
	Class    FileClass `json:"class"`
	Size     int64     `json:"size"`
	Lines    int       `json:"lines"`
	Checksum uint64    `json:"checksum,omitempty"`
}

// IncludeDirective is one textual #include match. Resolved is the
// canonical path of the target project file, or empty when the include
// is external or could not be matched.
type IncludeDirective struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Angle    bool   `json:"angle"`
	Line     int    `json:"line"`
	Resolved string `json:"resolved,omitempty"`
}

// Severity levels for issues and suggestion priorities.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// IssueKind tags the diagnostic variants.
type IssueKind string

const (
	IssueExcessiveIncludes  IssueKind = "EXCESSIVE_INCLUDES"
	IssueHighComplexity     IssueKind = "HIGH_COMPLEXITY"
	IssueLargeHeader        IssueKind = "LARGE_HEADER"
	IssueCircularDependency IssueKind = "CIRCULAR_DEPENDENCY"
	IssueUnusedHeader       IssueKind = "UNUSED_HEADER"
)

// Issue is one detected problem. Subject is a file path, or a cycle
// label for circular dependencies. Issues are appended in detection
// order and never mutated.
type Issue struct {
	Kind     IssueKind `json:"type"`
	Subject  string    `json:"subject"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Remedy   string    `json:"remedy"`
}

// SuggestionKind tags the recommendation variants.
type SuggestionKind string

const (
	SuggestForwardDeclaration   SuggestionKind = "FORWARD_DECLARATION"
	SuggestPimplPattern         SuggestionKind = "PIMPL_PATTERN"
	SuggestUnifiedHeader        SuggestionKind = "UNIFIED_HEADER"
	SuggestBuildOptimization    SuggestionKind = "BUILD_OPTIMIZATION"
	SuggestCompilerOptimization SuggestionKind = "COMPILER_OPTIMIZATION"
	SuggestCodeRestructuring    SuggestionKind = "CODE_RESTRUCTURING"
	SuggestCachingStrategy      SuggestionKind = "CACHING_STRATEGY"
)

// Suggestion is one actionable recommendation derived from analysis
// state. Target is a file path or "PROJECT" for project-wide advice.
type Suggestion struct {
	Kind        SuggestionKind `json:"type"`
	Target      string         `json:"target"`
	Priority    Severity       `json:"priority"`
	Description string         `json:"description"`
	Action      string         `json:"action"`
}

// Cycle is a closed walk of file paths through include edges.
type Cycle []string

// Warning records a recoverable per-file failure. The run continues;
// warnings are surfaced alongside the result.
type Warning struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Err   string `json:"error"`
}

// HeaderFrequency counts, per include name as written, how many
// directives name it across the project. A name included twice in one
// file counts twice. Independent of resolution success.
type HeaderFrequency map[string]int

// Add records one more file including name.
func (h HeaderFrequency) Add(name string) {
	h[name]++
}

// HeaderCount pairs an include name with its frequency.
type HeaderCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MostCommon returns the top n entries by count, ties broken by name
// so repeated runs rank identically.
func (h HeaderFrequency) MostCommon(n int) []HeaderCount {
	out := make([]HeaderCount, 0, len(h))
	for name, count := range h {
		out = append(out, HeaderCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// FileMetrics holds the per-file lexical measurements taken during the
// analysis pass. Read-only inputs for diagnostics, cost estimation and
// suggestion rules.
type FileMetrics struct {
	IncludeCount int `json:"include_count"`
	Complexity   int `json:"complexity"`
	ForwardDecls int `json:"forward_decls"`
	Lines        int `json:"lines"`
}
