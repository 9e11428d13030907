// File discovery for C/C++ trees: walks the project root, applies the
// exclusion globs, classifies extensions and produces a stable,
// lexicographically ordered catalog used by every later phase.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/debug"
	cerrors "github.com/standardbeagle/cppdeps/internal/errors"
	"github.com/standardbeagle/cppdeps/internal/types"
)

// Catalog is the immutable result of file discovery. The analysis
// phases treat it as shared read-only state, so lookups need no locks.
type Catalog struct {
	Root     string
	Files    []types.SourceFile
	Warnings []types.Warning

	byPath    map[string]int      // canonical path -> index into Files
	basenames map[string][]string // basename -> sorted candidate paths
}

// Discover walks root and catalogs every recognized C/C++ file whose
// relative path matches no exclusion pattern. An unreadable root is
// fatal; unreadable entries below it are skipped with a warning.
func Discover(ctx context.Context, cfg *config.Config) (*Catalog, error) {
	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return nil, cerrors.NewFileError("resolve", cfg.Project.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, cerrors.NewFileError("stat", root, err)
	}
	if !info.IsDir() {
		return nil, cerrors.NewFileError("stat", root, fmt.Errorf("not a directory"))
	}

	cat := &Catalog{
		Root:      root,
		byPath:    make(map[string]int),
		basenames: make(map[string][]string),
	}

	// Track visited directories to prevent infinite loops from symlink cycles
	visitedDirs := make(map[string]bool)

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			debug.LogAnalysis("catalog: skipping %s: %v", path, walkErr)
			cat.Warnings = append(cat.Warnings, types.Warning{
				Path: path, Stage: "discover", Err: walkErr.Error(),
			})
			return nil
		}

		if info.IsDir() {
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil // Skip symlinks that can't be resolved
			}
			if visitedDirs[realPath] {
				return filepath.SkipDir // Prevent cycles
			}
			visitedDirs[realPath] = true

			// Early directory pruning - skip entire excluded directories
			if path != root {
				relPath := relSlash(root, path)
				if matchesAny(cfg.Exclude, relPath) || matchesAny(cfg.Exclude, relPath+"/") {
					return filepath.SkipDir
				}
			}
			return nil
		}

		class, ok := types.ClassifyExtension(filepath.Ext(path))
		if !ok {
			return nil
		}

		relPath := relSlash(root, path)
		if matchesAny(cfg.Exclude, relPath) {
			return nil
		}
		if len(cfg.Include) > 0 && !matchesAny(cfg.Include, relPath) {
			return nil
		}

		cat.Files = append(cat.Files, types.SourceFile{
			Path:  path,
			Class: class,
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, cerrors.NewFileError("walk", root, err)
	}

	sort.Slice(cat.Files, func(i, j int) bool {
		return cat.Files[i].Path < cat.Files[j].Path
	})
	for i, f := range cat.Files {
		cat.byPath[f.Path] = i
		base := filepath.Base(f.Path)
		cat.basenames[base] = append(cat.basenames[base], f.Path)
	}

	debug.LogAnalysis("catalog: %d files under %s", len(cat.Files), root)
	return cat, nil
}

// Contains reports whether path is a cataloged project file.
func (c *Catalog) Contains(path string) bool {
	_, ok := c.byPath[path]
	return ok
}

// File returns the cataloged entry for path.
func (c *Catalog) File(path string) (types.SourceFile, bool) {
	i, ok := c.byPath[path]
	if !ok {
		return types.SourceFile{}, false
	}
	return c.Files[i], true
}

// ByBasename returns the sorted cataloged paths whose basename matches.
// Sorted order keeps basename-fallback resolution deterministic.
func (c *Catalog) ByBasename(name string) []string {
	return c.basenames[name]
}

// Headers returns the cataloged header files in catalog order.
func (c *Catalog) Headers() []types.SourceFile {
	var out []types.SourceFile
	for _, f := range c.Files {
		if f.Class == types.FileClassHeader {
			out = append(out, f)
		}
	}
	return out
}

// Sources returns the cataloged translation units in catalog order.
func (c *Catalog) Sources() []types.SourceFile {
	var out []types.SourceFile
	for _, f := range c.Files {
		if f.Class == types.FileClassSource {
			out = append(out, f)
		}
	}
	return out
}

// relSlash converts path to a slash-separated path relative to root for
// glob matching consistency across platforms.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
