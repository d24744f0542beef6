package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ncmirtools/internal/catalog"
	"ncmirtools/internal/config"
	"ncmirtools/internal/testsupport"
	"ncmirtools/internal/transport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir, true)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "read/write ok") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"), false)
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f, false)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type refusingTransport struct{ disconnects int }

func (r *refusingTransport) Connect(context.Context) error { return errors.New("connection refused") }

func (r *refusingTransport) TransferFile(context.Context, string) (transport.Status, error) {
	return transport.Status{}, transport.ErrConnectionNotEstablished
}

func (r *refusingTransport) Disconnect() { r.disconnects++ }

func (r *refusingTransport) DestinationDir() string { return "/data" }

func TestCheckSFTP(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := transport.NewSFTP(cfg.SFTP, nil)
	tr.SetAlternateSession(testsupport.NewSFTPSession(t, "/data"))

	result := CheckSFTP(context.Background(), tr)
	if !result.Passed || !strings.Contains(result.Detail, "/data") {
		t.Fatalf("expected pass, got %+v", result)
	}

	refusing := &refusingTransport{}
	result = CheckSFTP(context.Background(), refusing)
	if result.Passed || result.Detail != "connection refused" {
		t.Fatalf("expected failure, got %+v", result)
	}
	if refusing.disconnects != 1 {
		t.Fatalf("expected disconnect after failed connect, got %d", refusing.disconnects)
	}
}

func TestCheckCIL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	if result := CheckCIL(context.Background(), srv.URL+"/", srv.Client()); !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	if result := CheckCIL(context.Background(), broken.URL, broken.Client()); result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected server error, got %+v", result)
	}

	if result := CheckCIL(context.Background(), "", nil); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_LocalSections(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.DataServer.DataDir = filepath.Join(base, "data")
	cfg.DataServer.TransferLog = filepath.Join(base, "last.log")
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(base, "catalog.db")
	cfg.MarkSection(config.SectionDataServer, config.SectionDatabase)

	if err := os.MkdirAll(cfg.DataServer.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := catalog.CreateSQLite(context.Background(), cfg.Database.Path, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	results := RunAll(context.Background(), &cfg, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if Failed(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}

	cfg.DataServer.DataDir = filepath.Join(base, "missing")
	if results := RunAll(context.Background(), &cfg, nil); !Failed(results) {
		t.Fatalf("expected missing data dir to fail, got %+v", results)
	}
}
