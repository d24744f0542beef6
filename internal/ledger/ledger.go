// Package ledger persists the path of the last file successfully pushed to the
// kiosk so repeated runs do not transfer the same file twice.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Ledger is a one-line text file holding the last transferred path.
type Ledger struct {
	path string
}

// New returns a ledger stored at path.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Get returns the recorded path. A missing file or an empty first line
// reports false with a nil error.
func (l *Ledger) Get() (string, bool, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("open transfer log: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read transfer log: %w", err)
	}
	line = strings.TrimRight(line, " \t\r\n")
	if line == "" {
		return "", false, nil
	}
	return line, true, nil
}

// Record replaces the ledger contents with path and a trailing newline. The
// write is atomic; readers see either the old or the new value. An empty path
// leaves the ledger untouched.
func (l *Ledger) Record(path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create transfer log directory: %w", err)
		}
	}
	if err := renameio.WriteFile(l.path, []byte(path+"\n"), 0o644); err != nil {
		return fmt.Errorf("write transfer log: %w", err)
	}
	return nil
}
