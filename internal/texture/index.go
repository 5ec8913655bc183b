package texture

import (
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Index maps normalised relative paths under a model directory to the
// files on disk.
//
// PMX texture tables are written on Windows: separators are backslashes,
// lookups are case-insensitive and names typed on one machine may be
// stored decomposed (NFD) on another. Keys fold all three away.
type Index struct {
	root    string
	entries map[string]string // key(relative path) → full path
}

// BuildIndex walks modelDir and indexes every regular file in it.
// Unreadable subdirectories are skipped.
func BuildIndex(modelDir string) *Index {
	idx := &Index{root: modelDir, entries: make(map[string]string)}

	filepath.WalkDir(modelDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(modelDir, path)
		if err != nil {
			return nil
		}
		k := key(rel)
		if _, exists := idx.entries[k]; !exists {
			idx.entries[k] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the file for texPath, or ("", false). texPath is
// either relative to the indexed directory or a path inside it, such as
// the ones mesh.Build produces.
func (idx *Index) ResolvePath(texPath string) (string, bool) {
	p := filepath.FromSlash(strings.ReplaceAll(texPath, "\\", "/"))
	if filepath.IsAbs(p) || strings.HasPrefix(filepath.Clean(p), filepath.Clean(idx.root)+string(filepath.Separator)) {
		rel, err := filepath.Rel(idx.root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", false
		}
		p = rel
	}

	path, ok := idx.entries[key(p)]
	return path, ok
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func key(rel string) string {
	s := filepath.ToSlash(filepath.Clean(rel))
	s = strings.TrimPrefix(s, "./")
	return strings.ToLower(norm.NFC.String(s))
}
