package finder

import (
	"os"
	"path/filepath"
)

// Walker yields every regular file beneath a root using an explicit stack.
// The sequence is lazy, finite, and cannot be restarted. A root that is itself
// a file yields just that file. Unreadable directories are skipped.
type Walker struct {
	exclude map[string]struct{}
	stack   []string
	pending []string
	onError func(path string, err error)
}

// NewWalker prepares a walk of root. Subdirectories whose base name exactly
// matches an entry in exclude are not descended into.
func NewWalker(root string, exclude []string) *Walker {
	w := &Walker{exclude: make(map[string]struct{}, len(exclude))}
	for _, name := range exclude {
		w.exclude[name] = struct{}{}
	}
	if root == "" {
		return w
	}
	info, err := os.Stat(root)
	switch {
	case err != nil:
	case info.Mode().IsRegular():
		w.pending = append(w.pending, root)
	case info.IsDir():
		w.stack = append(w.stack, root)
	}
	return w
}

// Next returns the next file path, or false once the walk is exhausted.
func (w *Walker) Next() (string, bool) {
	for {
		if n := len(w.pending); n > 0 {
			path := w.pending[0]
			w.pending = w.pending[1:]
			return path, true
		}
		if len(w.stack) == 0 {
			return "", false
		}
		dir := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.expand(dir)
	}
}

func (w *Walker) expand(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if w.onError != nil {
			w.onError(dir, err)
		}
		return
	}
	// Directories are pushed in reverse so they pop in listing order.
	var subdirs []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			if _, skip := w.exclude[entry.Name()]; skip {
				continue
			}
			subdirs = append(subdirs, full)
		case entry.Type().IsRegular():
			w.pending = append(w.pending, full)
		case entry.Type()&os.ModeSymlink != 0:
			if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
				w.pending = append(w.pending, full)
			}
		}
	}
	for i := len(subdirs) - 1; i >= 0; i-- {
		w.stack = append(w.stack, subdirs[i])
	}
}
