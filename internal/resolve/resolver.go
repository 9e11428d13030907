// Heuristic #include resolution. This is a textual approximation of
// compiler include search, not a reimplementation of it: angle-bracket
// includes are always treated as external, and quoted includes resolve
// through a fixed fallback order against the cataloged project files.
package resolve

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/standardbeagle/cppdeps/internal/catalog"
	"github.com/standardbeagle/cppdeps/internal/debug"
	"github.com/standardbeagle/cppdeps/internal/types"
)

// includeRe matches a line-leading #include directive in either quote
// form. Tolerant of whitespace between '#' and 'include'.
var includeRe = regexp.MustCompile(`^\s*#\s*include\s*([<"])([^>"]+)[">]`)

// extensionFallbacks is the order of suffixes tried when resolving a
// quoted include against the project root.
var extensionFallbacks = []string{"", ".h", ".hpp", ".hh", ".hxx"}

// ParseIncludes scans content line-wise and returns every include
// directive in textual order. Malformed lines are skipped, never an
// error.
func ParseIncludes(owner string, content []byte) []types.IncludeDirective {
	var out []types.IncludeDirective
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		m := includeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, types.IncludeDirective{
			Owner: owner,
			Name:  m[2],
			Angle: m[1] == "<",
			Line:  i + 1,
		})
	}
	return out
}

// Resolver maps quoted include names to cataloged project files. The
// catalog is shared read-only state, so a Resolver is safe for
// concurrent use.
type Resolver struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve returns the canonical path of the project file the directive
// names, or "" when the include is external or unresolved. Angle
// includes never resolve, even when a same-named project file exists;
// downstream PCH ranking depends on that classification.
//
// Quoted includes try, in order: the including file's directory, the
// project root with extension fallbacks, then a basename search across
// the catalog. First match wins, which makes resolution idempotent.
func (r *Resolver) Resolve(d types.IncludeDirective) string {
	if d.Angle {
		return ""
	}

	// (a) relative to the including file's directory
	rel := filepath.Clean(filepath.Join(filepath.Dir(d.Owner), d.Name))
	if r.cat.Contains(rel) {
		return rel
	}

	// (b) relative to the project root, with extension fallbacks
	for _, ext := range extensionFallbacks {
		candidate := filepath.Clean(filepath.Join(r.cat.Root, d.Name+ext))
		if r.cat.Contains(candidate) {
			return candidate
		}
	}

	// (c) basename search anywhere under the project root
	base := filepath.Base(d.Name)
	for _, ext := range extensionFallbacks {
		if candidates := r.cat.ByBasename(base + ext); len(candidates) > 0 {
			return candidates[0]
		}
	}

	debug.LogAnalysis("resolve: %q unresolved (from %s)", d.Name, d.Owner)
	return ""
}
