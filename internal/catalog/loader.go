package catalog

import (
	"bytes"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Content is one file's loaded text plus the measurements derived from
// it. Loaded once per analysis pass and not retained afterwards.
type Content struct {
	Data     []byte
	Lines    int
	Checksum uint64
}

// Load reads a cataloged file. The checksum keys change detection for
// watch-mode re-analysis.
func Load(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, err
	}
	return Content{
		Data:     data,
		Lines:    countLines(data),
		Checksum: xxhash.Sum64(data),
	}, nil
}

// countLines counts newline-terminated lines plus a trailing partial
// line. An empty file has zero lines.
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
