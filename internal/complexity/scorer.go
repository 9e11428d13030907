// Lexical complexity scoring. These are regex pattern counts over raw
// text with fixed weights, not an AST metric: the score tolerates
// malformed or partial C++ and never fails on unparsable input.
package complexity

import "regexp"

var (
	templateDeclRe = regexp.MustCompile(`template\s*<[^>]*>`)
	templateSpecRe = regexp.MustCompile(`template\s*<>\s*[^;{]+`)
	includeRe      = regexp.MustCompile(`(?m)^\s*#\s*include`)
	classRe        = regexp.MustCompile(`(class|struct)\s+\w+`)
	functionRe     = regexp.MustCompile(`\w+\s+\w+\s*\([^)]*\)\s*(\{|\[\[[^\]]*\]\])`)
	macroRe        = regexp.MustCompile(`(?m)^\s*#\s*define\s+\w+`)
)

// Scorer computes a per-file heaviness score. Template patterns are
// the dominant compile-cost signal, so they can be toggled off when a
// run disables template analysis.
type Scorer struct {
	templates bool
}

func NewScorer(enableTemplates bool) *Scorer {
	return &Scorer{templates: enableTemplates}
}

// Score combines weighted pattern counts: template declarations x3,
// template specializations x2, includes x1, class/struct x2,
// function-definition-like x1, macro definitions x0.5 with the final
// sum truncated toward zero. Always non-negative.
func (s *Scorer) Score(content []byte) int {
	score := 0.0

	if s.templates {
		score += float64(len(templateDeclRe.FindAll(content, -1))) * 3
		score += float64(len(templateSpecRe.FindAll(content, -1))) * 2
	}

	score += float64(len(includeRe.FindAll(content, -1)))
	score += float64(len(classRe.FindAll(content, -1))) * 2
	score += float64(len(functionRe.FindAll(content, -1)))
	score += float64(len(macroRe.FindAll(content, -1))) * 0.5

	return int(score)
}

// CountIncludes counts #include directives for the excessive-includes
// check; shares the scorer's pattern so both agree on what an include is.
func CountIncludes(content []byte) int {
	return len(includeRe.FindAll(content, -1))
}

var forwardDeclRe = regexp.MustCompile(`(?m)^\s*(class|struct)\s+\w+\s*;`)

// CountForwardDecls counts pure forward declarations; input to the
// unified-header suggestion rule.
func CountForwardDecls(content []byte) int {
	return len(forwardDeclRe.FindAll(content, -1))
}

var (
	stlTemplateRe   = regexp.MustCompile(`std::\w+\s*<[^>]*>`)
	boostTemplateRe = regexp.MustCompile(`boost::\w+\s*<[^>]*>`)
)

// TemplateUsage breaks template occurrences down by origin: own
// template declarations versus instantiations of STL and Boost
// templates.
type TemplateUsage struct {
	Declarations int `json:"template_declarations"`
	STL          int `json:"stl_templates"`
	Boost        int `json:"boost_templates"`
}

// Merge accumulates another file's counts.
func (u *TemplateUsage) Merge(other TemplateUsage) {
	u.Declarations += other.Declarations
	u.STL += other.STL
	u.Boost += other.Boost
}

// Total is the sum over all categories.
func (u TemplateUsage) Total() int {
	return u.Declarations + u.STL + u.Boost
}

// CountTemplates tallies template-related patterns in one file.
func CountTemplates(content []byte) TemplateUsage {
	return TemplateUsage{
		Declarations: len(templateDeclRe.FindAll(content, -1)),
		STL:          len(stlTemplateRe.FindAll(content, -1)),
		Boost:        len(boostTemplateRe.FindAll(content, -1)),
	}
}
