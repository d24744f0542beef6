package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ncmirtools/internal/catalog"
	"ncmirtools/internal/config"
	"ncmirtools/internal/testsupport"
)

func seedCatalog(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()
	store, err := catalog.CreateSQLite(ctx, cfg.Database.Path, nil)
	if err != nil {
		t.Fatalf("CreateSQLite: %v", err)
	}
	defer store.Close()

	for _, p := range []catalog.Project{
		{ID: 2033, Name: "yo project", Description: "first"},
		{ID: 2047, Name: "something", Description: "You better believe it"},
		{ID: 2050, Name: "unrelated", Description: "nothing here"},
		{ID: 2060, Name: "100%_done", Description: ""},
	} {
		if err := store.AddProject(ctx, p); err != nil {
			t.Fatalf("AddProject: %v", err)
		}
	}
	if err := store.AddMicroscopyProduct(ctx, catalog.MicroscopyProduct{ID: 123, ImageBasename: "foo", Notes: "some notes"}); err != nil {
		t.Fatalf("AddMicroscopyProduct: %v", err)
	}
}

func openCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSQLiteCatalog())
	seedCatalog(t, cfg)
	store, err := catalog.OpenFromConfig(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("OpenFromConfig: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func projectIDs(projects []catalog.Project) []int64 {
	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSearchProjects(t *testing.T) {
	store := openCatalog(t)
	ctx := context.Background()

	tests := []struct {
		keyword string
		want    []int64
	}{
		{keyword: "YO", want: []int64{2033, 2047}},
		{keyword: "believe", want: []int64{2047}},
		{keyword: "", want: []int64{2033, 2047, 2050, 2060}},
		{keyword: "%", want: []int64{2060}},
		{keyword: "%_d", want: []int64{2060}},
		{keyword: "missing", want: []int64{}},
	}
	for _, tt := range tests {
		got, err := store.SearchProjects(ctx, tt.keyword)
		if err != nil {
			t.Fatalf("SearchProjects(%q): %v", tt.keyword, err)
		}
		if diff := cmp.Diff(tt.want, projectIDs(got)); diff != "" {
			t.Errorf("SearchProjects(%q) mismatch (-want +got):\n%s", tt.keyword, diff)
		}
	}
}

func TestProjectString(t *testing.T) {
	p := catalog.Project{ID: 2033, Name: "yo project"}
	if got := p.String(); got != "2033    yo project" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestMicroscopyProduct(t *testing.T) {
	store := openCatalog(t)
	ctx := context.Background()

	mp, ok, err := store.MicroscopyProduct(ctx, 123)
	if err != nil || !ok {
		t.Fatalf("MicroscopyProduct(123) = %v, %v", ok, err)
	}
	want := "\nId: 123\n\nImage Basename:\n\n   foo\n\nNotes:\n\n   some notes\n\n"
	if got := mp.Format(); got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}

	if _, ok, err := store.MicroscopyProduct(ctx, 999); err != nil || ok {
		t.Fatalf("expected no match, got ok=%v err=%v", ok, err)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	var missing *config.MissingOptionError
	if _, err := catalog.OpenFromConfig(ctx, &cfg, nil); !errors.As(err, &missing) {
		t.Fatalf("expected MissingOptionError, got %v", err)
	}

	settings := config.Database{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "absent.db")}
	if _, err := catalog.Open(ctx, settings, nil); !errors.Is(err, catalog.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}

	if _, err := catalog.Open(ctx, config.Database{Driver: "oracle"}, nil); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
