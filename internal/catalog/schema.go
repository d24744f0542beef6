package catalog

import (
	"context"
	"fmt"
)

// Table layout mirrors the CCDB tables the queries read.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS Project (
    project_id INTEGER PRIMARY KEY,
    project_name TEXT NOT NULL DEFAULT '',
    project_desc TEXT
);

CREATE TABLE IF NOT EXISTS Microscopy_products (
    mpid INTEGER PRIMARY KEY,
    image_basename TEXT,
    notes TEXT
);
`

func (s *Store) initSchema(ctx context.Context) error {
	if err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, sqliteSchema)
		return err
	}); err != nil {
		return fmt.Errorf("init catalog schema: %w", err)
	}
	return nil
}

// AddProject inserts or replaces a project row in a local mirror.
func (s *Store) AddProject(ctx context.Context, p Project) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			s.rebind(`INSERT OR REPLACE INTO Project (project_id, project_name, project_desc) VALUES (?, ?, ?)`),
			p.ID, p.Name, p.Description,
		)
		return err
	})
}

// AddMicroscopyProduct inserts or replaces a microscopy product row in a
// local mirror.
func (s *Store) AddMicroscopyProduct(ctx context.Context, mp MicroscopyProduct) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			s.rebind(`INSERT OR REPLACE INTO Microscopy_products (mpid, image_basename, notes) VALUES (?, ?, ?)`),
			mp.ID, mp.ImageBasename, mp.Notes,
		)
		return err
	})
}
