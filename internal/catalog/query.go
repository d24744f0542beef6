package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"ncmirtools/internal/logging"
)

// Messages printed when a query matches nothing.
const (
	NoProjectsFoundMsg          = "No matching projects found"
	NoMicroscopyProductFoundMsg = "No matching Microscopy Product found"
)

// Project is a catalog project row.
type Project struct {
	ID          int64
	Name        string
	Description string
}

// String renders the project as "<id>    <name>".
func (p Project) String() string {
	return fmt.Sprintf("%d    %s", p.ID, p.Name)
}

// MicroscopyProduct is a catalog microscopy product row.
type MicroscopyProduct struct {
	ID            int64
	ImageBasename string
	Notes         string
}

// Format renders the product in the mpidinfo layout.
func (mp MicroscopyProduct) Format() string {
	return fmt.Sprintf("\nId: %d\n\nImage Basename:\n\n   %s\n\nNotes:\n\n   %s\n\n",
		mp.ID, mp.ImageBasename, mp.Notes)
}

var lower = cases.Lower(language.Und)

// likePattern builds a case-folded substring pattern with LIKE wildcards in
// the keyword escaped.
func likePattern(keyword string) string {
	keyword = lower.String(norm.NFC.String(strings.TrimSpace(keyword)))
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

// SearchProjects returns projects whose name or description contains keyword,
// ignoring case, ordered by id. An empty keyword matches every project.
func (s *Store) SearchProjects(ctx context.Context, keyword string) ([]Project, error) {
	pattern := likePattern(keyword)
	query := s.rebind(`SELECT project_id, COALESCE(project_name, ''), COALESCE(project_desc, '')
FROM Project
WHERE LOWER(COALESCE(project_name, '')) LIKE ? ESCAPE '\'
   OR LOWER(COALESCE(project_desc, '')) LIKE ? ESCAPE '\'
ORDER BY project_id`)

	var projects []Project
	err := retryOnBusy(ctx, func() error {
		projects = projects[:0]
		rows, err := s.db.QueryContext(ctx, query, pattern, pattern)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p Project
			if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
				return err
			}
			projects = append(projects, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	s.logger.Debug("project search complete",
		logging.String("keyword", keyword),
		logging.Int("matches", len(projects)),
	)
	return projects, nil
}

// MicroscopyProduct looks up a microscopy product by id. The bool is false
// when no row matches.
func (s *Store) MicroscopyProduct(ctx context.Context, id int64) (MicroscopyProduct, bool, error) {
	query := s.rebind(`SELECT mpid, COALESCE(image_basename, ''), COALESCE(notes, '')
FROM Microscopy_products
WHERE mpid = ?`)

	var mp MicroscopyProduct
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, id).Scan(&mp.ID, &mp.ImageBasename, &mp.Notes)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return MicroscopyProduct{}, false, nil
	}
	if err != nil {
		return MicroscopyProduct{}, false, fmt.Errorf("lookup microscopy product %d: %w", id, err)
	}
	return mp, true, nil
}
