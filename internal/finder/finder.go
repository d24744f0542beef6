// Package finder locates the file the kiosk pipeline should send next.
package finder

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"ncmirtools/internal/config"
	"ncmirtools/internal/logging"
)

// Candidate is a file chosen for transfer along with its modification time.
type Candidate struct {
	Path    string
	ModTime time.Time
}

// SecondYoungest picks the file that was most recently superseded by a newer
// one. The newest file under the tree may still be open by the instrument
// software, so it is never returned.
type SecondYoungest struct {
	Root          string
	Suffix        string
	DirsToExclude []string

	logger *slog.Logger
}

// New constructs a selector. A nil logger discards log output.
func New(root, suffix string, exclude []string, logger *slog.Logger) *SecondYoungest {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SecondYoungest{
		Root:          root,
		Suffix:        suffix,
		DirsToExclude: append([]string(nil), exclude...),
		logger:        logging.NewComponentLogger(logger, "finder"),
	}
}

// NewFromConfig builds a selector from the [dataserver] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*SecondYoungest, error) {
	ds, err := cfg.DataServerSettings()
	if err != nil {
		return nil, err
	}
	return New(ds.DataDir, ds.ImageSuffix, ds.DirsToExclude, logger), nil
}

// Select walks the tree and returns the second youngest matching file. It
// reports false when fewer than two files match or the root is unusable.
func (s *SecondYoungest) Select() (Candidate, bool) {
	start := time.Now()

	var youngest, second *Candidate
	eligible, wrongSuffix := 0, 0

	walker := NewWalker(s.Root, s.DirsToExclude)
	walker.onError = func(path string, err error) {
		s.logger.Debug("skipping unreadable directory", logging.String("path", path), logging.Error(err))
	}
	for {
		path, ok := walker.Next()
		if !ok {
			break
		}
		if s.Suffix != "" && !strings.HasSuffix(path, s.Suffix) {
			wrongSuffix++
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			// removed between listing and stat
			continue
		}
		eligible++
		current := &Candidate{Path: path, ModTime: info.ModTime()}
		switch {
		case youngest == nil || current.ModTime.After(youngest.ModTime):
			second = youngest
			youngest = current
		case second == nil || current.ModTime.After(second.ModTime):
			// listing order is arbitrary so an older file can still
			// outrank the displaced one
			second = current
		}
	}

	s.logger.Info("file search complete",
		logging.String("root", s.Root),
		logging.Duration("duration", time.Since(start)),
		logging.Int("eligible_files", eligible),
		logging.Int("wrong_suffix_files", wrongSuffix),
	)

	if second == nil {
		return Candidate{}, false
	}
	return *second, true
}
