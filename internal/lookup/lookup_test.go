package lookup_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ncmirtools/internal/lookup"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
}

func TestNewRejectsInvalidTemplates(t *testing.T) {
	for _, template := range []string{
		"",
		"/foo",
		"/foo<VOLUME_ID>/bar",
		"/foo<VOLUME_ID>/<PROJECT_ID>",
		"/foo<PROJECT_ID>/<VOLUME_ID>/<MP_ID>",
		"/foo<VOLUME_ID>/<MP_ID>/<PROJECT_ID>",
	} {
		if _, err := lookup.New(template, nil); !errors.Is(err, lookup.ErrInvalidSearchPath) {
			t.Errorf("New(%q) error = %v, want ErrInvalidSearchPath", template, err)
		}
	}
}

func TestEmptyIDIsRejected(t *testing.T) {
	d, err := lookup.New("/a<VOLUME_ID>/b<PROJECT_ID>/c<MP_ID>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.MicroscopyProductDirs(" "); !errors.Is(err, lookup.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := d.ProjectDirs(""); !errors.Is(err, lookup.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestMicroscopyProductDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"ccdbprod1/home/acquisition/project_100/microscopy_5269524",
		"ccdbprod1/home/acquisition/project_100/microscopy_52695240",
		"ccdbprod12/home/acquisition/project_200/microscopy_5269524",
		"ccdbprod12/home/acquisition/project_200/microscopy_1",
		"other/home/acquisition/project_300/microscopy_5269524",
	)
	// a file with the right name is not a directory
	if err := os.WriteFile(filepath.Join(root, "ccdbprod12/home/acquisition/project_200/microscopy_99"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	template := filepath.Join(root, "ccdbprod") + "<VOLUME_ID>/home/acquisition/project_<PROJECT_ID>/microscopy_<MP_ID>"
	d, err := lookup.New(template, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := d.MicroscopyProductDirs("5269524")
	if err != nil {
		t.Fatalf("MicroscopyProductDirs: %v", err)
	}
	want := []string{
		filepath.Join(root, "ccdbprod1/home/acquisition/project_100/microscopy_5269524"),
		filepath.Join(root, "ccdbprod12/home/acquisition/project_200/microscopy_5269524"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dirs mismatch (-want +got):\n%s", diff)
	}

	if got, _ := d.MicroscopyProductDirs("99"); len(got) != 0 {
		t.Fatalf("expected files to be ignored, got %v", got)
	}
	if got, _ := d.MicroscopyProductDirs("777"); len(got) != 0 {
		t.Fatalf("expected no match, got %v", got)
	}
}

func TestProjectDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"ccdbprod1/home/acquisition/project_100/microscopy_1",
		"ccdbprod2/home/acquisition/project_1000",
		"ccdbprod3/home/acquisition/project_100",
	)
	template := filepath.Join(root, "ccdbprod") + "<VOLUME_ID>/home/acquisition/project_<PROJECT_ID>/microscopy_<MP_ID>"
	d, err := lookup.New(template, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := d.ProjectDirs("100")
	if err != nil {
		t.Fatalf("ProjectDirs: %v", err)
	}
	want := []string{
		filepath.Join(root, "ccdbprod1/home/acquisition/project_100"),
		filepath.Join(root, "ccdbprod3/home/acquisition/project_100"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dirs mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingVolumeBase(t *testing.T) {
	d, err := lookup.New(filepath.Join(t.TempDir(), "nope", "vol")+"<VOLUME_ID>/<PROJECT_ID>/<MP_ID>", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := d.MicroscopyProductDirs("1")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no matches and no error, got %v, %v", got, err)
	}
}
