// Package lookup finds the on-disk directory for a project or microscopy
// product id using a search path template.
//
// The template contains <VOLUME_ID>, <PROJECT_ID>, and <MP_ID> in that order.
// Each placeholder marks a directory name prefix: the volume and any id other
// than the one being looked up match any suffix, while the requested id must
// match the whole directory name.
package lookup

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ncmirtools/internal/logging"
)

// Template placeholders.
const (
	VolumeID  = "<VOLUME_ID>"
	ProjectID = "<PROJECT_ID>"
	MPID      = "<MP_ID>"
)

var (
	// ErrInvalidSearchPath reports a template missing a placeholder or with
	// placeholders out of order.
	ErrInvalidSearchPath = errors.New("invalid search path")
	// ErrInvalidID reports an empty id.
	ErrInvalidID = errors.New("invalid id")
)

// DirectoryForID resolves ids to directories under a parsed template.
type DirectoryForID struct {
	volPath  string
	projPath string
	mpPath   string

	logger *slog.Logger
}

// New parses template. A nil logger discards log output.
func New(template string, logger *slog.Logger) (*DirectoryForID, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	volIdx := strings.Index(template, VolumeID)
	if volIdx < 0 {
		return nil, fmt.Errorf("%w: %s missing from %q", ErrInvalidSearchPath, VolumeID, template)
	}
	rest := template[volIdx+len(VolumeID):]
	projIdx := strings.Index(rest, ProjectID)
	if projIdx < 0 {
		return nil, fmt.Errorf("%w: %s must follow %s in %q", ErrInvalidSearchPath, ProjectID, VolumeID, template)
	}
	mpRest := rest[projIdx+len(ProjectID):]
	mpIdx := strings.Index(mpRest, MPID)
	if mpIdx < 0 {
		return nil, fmt.Errorf("%w: %s must follow %s in %q", ErrInvalidSearchPath, MPID, ProjectID, template)
	}

	d := &DirectoryForID{
		volPath:  template[:volIdx],
		projPath: strings.TrimPrefix(rest[:projIdx], "/"),
		mpPath:   strings.TrimPrefix(mpRest[:mpIdx], "/"),
		logger:   logging.NewComponentLogger(logger, "lookup"),
	}
	d.logger.Debug("parsed search path",
		logging.String("volpath", d.volPath),
		logging.String("projpath", d.projPath),
		logging.String("mpidpath", d.mpPath),
	)
	return d, nil
}

// ProjectDirs returns every project directory whose name is exactly the
// project prefix followed by id.
func (d *DirectoryForID) ProjectDirs(id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: project id cannot be empty", ErrInvalidID)
	}
	var matches []string
	for _, vol := range d.volumeDirs() {
		matches = append(matches, d.projectDirs(vol, id, true)...)
	}
	return matches, nil
}

// MicroscopyProductDirs returns every microscopy product directory whose name
// is exactly the product prefix followed by id, under any project.
func (d *DirectoryForID) MicroscopyProductDirs(id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: microscopy product id cannot be empty", ErrInvalidID)
	}
	var matches []string
	projects := 0
	for _, vol := range d.volumeDirs() {
		for _, project := range d.projectDirs(vol, "", false) {
			projects++
			raw := filepath.Join(project, d.mpPath)
			matches = append(matches, d.matching(filepath.Dir(raw), filepath.Base(raw)+id, true)...)
		}
	}
	d.logger.Debug("microscopy product search complete",
		logging.Int("project_dirs", projects),
		logging.Int("matches", len(matches)),
	)
	return matches, nil
}

func (d *DirectoryForID) volumeDirs() []string {
	return d.matching(filepath.Dir(d.volPath), filepath.Base(d.volPath), false)
}

func (d *DirectoryForID) projectDirs(vol, id string, exact bool) []string {
	raw := filepath.Join(vol, d.projPath)
	return d.matching(filepath.Dir(raw), filepath.Base(raw)+id, exact)
}

// matching lists directories directly under base whose name starts with
// prefix, or equals it when exact is set.
func (d *DirectoryForID) matching(base, prefix string, exact bool) []string {
	entries, err := os.ReadDir(base)
	if err != nil {
		d.logger.Debug("unable to list directory", logging.String("path", base), logging.Error(err))
		return nil
	}
	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if exact && name != prefix {
			continue
		}
		if !exact && !strings.HasPrefix(name, prefix) {
			continue
		}
		full := filepath.Join(base, name)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			dirs = append(dirs, full)
		}
	}
	return dirs
}
