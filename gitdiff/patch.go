// Package gitdiff imports unified diff patches as edit proposals, so a
// patch produced outside the editor can be reviewed hunk by hunk like any
// other agent edit.
package gitdiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileChange is one file's worth of a parsed patch.
type FileChange struct {
	Path     string
	OldPath  string
	IsNew    bool
	IsDelete bool

	file *gitdiff.File
}

// Parse reads a unified or git-format patch and returns its per-file
// changes in patch order.
func Parse(r io.Reader) ([]FileChange, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing patch: %w", err)
	}

	changes := make([]FileChange, 0, len(files))
	for _, f := range files {
		path := f.NewName
		if path == "" {
			path = f.OldName
		}
		changes = append(changes, FileChange{
			Path:     path,
			OldPath:  f.OldName,
			IsNew:    f.IsNew,
			IsDelete: f.IsDelete,
			file:     f,
		})
	}
	return changes, nil
}

// Apply returns the file content with the change applied to original.
// A new file applies against empty content; context mismatches fail.
func (c FileChange) Apply(original string) (string, error) {
	var out bytes.Buffer
	if err := gitdiff.Apply(&out, strings.NewReader(original), c.file); err != nil {
		return "", fmt.Errorf("applying patch to %s: %w", c.Path, err)
	}
	return out.String(), nil
}
