package fetcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// DirSource reads documents from a local directory tree.
type DirSource struct {
	root string
}

// NewDirSource creates a DirSource rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// List walks the tree and returns document paths in lexical order. Hidden
// files and directories are skipped.
func (d *DirSource) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p != d.root && len(entry.Name()) > 0 && entry.Name()[0] == '.' {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !IsDocument(entry.Name()) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "dir: list %s", d.root)
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the content of name. Names escaping the root are rejected.
func (d *DirSource) Read(_ context.Context, name string) ([]byte, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return nil, eris.Errorf("dir: illegal path %q", name)
	}
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, eris.Wrapf(err, "dir: read %s", name)
	}
	return data, nil
}
