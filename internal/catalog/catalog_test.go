package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cppdeps/internal/config"
	cerrors "github.com/standardbeagle/cppdeps/internal/errors"
	"github.com/standardbeagle/cppdeps/internal/types"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Project.Root = root
	return cfg
}

func TestDiscover_ClassifiesAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.cpp", "int main() {}\n")
	writeFile(t, root, "include/widget.h", "class Widget;\n")
	writeFile(t, root, "include/widget.hpp", "\n")
	writeFile(t, root, "README.md", "docs\n")
	writeFile(t, root, "script.py", "pass\n")

	cat, err := Discover(context.Background(), testConfig(root))
	require.NoError(t, err)

	require.Len(t, cat.Files, 3)
	// Lexicographic order by full path.
	assert.Equal(t, "widget.h", filepath.Base(cat.Files[0].Path))
	assert.Equal(t, "widget.hpp", filepath.Base(cat.Files[1].Path))
	assert.Equal(t, "main.cpp", filepath.Base(cat.Files[2].Path))

	assert.Equal(t, types.FileClassHeader, cat.Files[0].Class)
	assert.Equal(t, types.FileClassSource, cat.Files[2].Class)

	assert.Len(t, cat.Headers(), 2)
	assert.Len(t, cat.Sources(), 1)
}

func TestDiscover_MissingRootIsFatal(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := Discover(context.Background(), cfg)
	require.Error(t, err)

	var fileErr *cerrors.FileError
	assert.ErrorAs(t, err, &fileErr)
}

func TestDiscover_RootIsFile(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "single.cpp", "")
	_, err := Discover(context.Background(), testConfig(path))
	assert.Error(t, err)
}

func TestDiscover_ExclusionPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.cpp", "")
	writeFile(t, root, "build/generated.cpp", "")
	writeFile(t, root, "vendor/lib/lib.h", "")
	writeFile(t, root, ".hidden/tool.cpp", "")

	cat, err := Discover(context.Background(), testConfig(root))
	require.NoError(t, err)

	require.Len(t, cat.Files, 1)
	assert.Equal(t, "app.cpp", filepath.Base(cat.Files[0].Path))
}

func TestDiscover_UserExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.cpp", "")
	writeFile(t, root, "src/generated/gen.cpp", "")

	cfg := testConfig(root)
	cfg.Exclude = append(cfg.Exclude, "**/generated/**")

	cat, err := Discover(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, cat.Files, 1)
	assert.Equal(t, "app.cpp", filepath.Base(cat.Files[0].Path))
}

func TestDiscover_IncludePatternsNarrow(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.cpp", "")
	writeFile(t, root, "tools/tool.cpp", "")

	cfg := testConfig(root)
	cfg.Include = []string{"src/**"}

	cat, err := Discover(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, cat.Files, 1)
	assert.Equal(t, "app.cpp", filepath.Base(cat.Files[0].Path))
}

func TestDiscover_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cpp", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, testConfig(root))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalog_Lookups(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "include/a.h", "")
	writeFile(t, root, "src/a.h", "")

	cat, err := Discover(context.Background(), testConfig(root))
	require.NoError(t, err)

	assert.True(t, cat.Contains(a))
	assert.False(t, cat.Contains(filepath.Join(root, "include", "missing.h")))

	f, ok := cat.File(a)
	require.True(t, ok)
	assert.Equal(t, types.FileClassHeader, f.Class)

	// Both a.h files share a basename; candidates come back sorted.
	candidates := cat.ByBasename("a.h")
	require.Len(t, candidates, 2)
	assert.Less(t, candidates[0], candidates[1])
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.h", "line one\nline two\n")

	content, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, content.Lines)
	assert.NotZero(t, content.Checksum)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, content.Checksum, again.Checksum)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "gone.h"))
	assert.Error(t, err)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected int
	}{
		{"empty", "", 0},
		{"single line no newline", "abc", 1},
		{"single line with newline", "abc\n", 1},
		{"trailing partial line", "a\nb\nc", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countLines([]byte(tt.data)))
		})
	}
}
