package bleve_indexer

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// ListNotes returns the note files below root. Hidden entries (and everything
// below a hidden directory) are skipped, as are files whose extension is not
// in extensions. Root itself is never treated as hidden. Walk errors are
// collected and do not stop the traversal.
func ListNotes(root string, extensions []string) ([]string, []error) {
	var notes []string
	var errs []error

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}

		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() && isNote(path, extensions) {
			notes = append(notes, path)
		}
		return nil
	})

	return notes, errs
}

// resolveRoot makes root absolute and resolves symlinks in it, so a linked
// notes directory is walked and keyed by its real location.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isNote(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	return ext != "" && lo.ContainsBy(extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}
