package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ncmirtools/internal/config"
)

func writeConfig(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadReportsMissingFiles(t *testing.T) {
	home := t.TempDir()
	etc := t.TempDir()

	_, _, err := config.Load(config.LoadOptions{HomeDir: home, EtcDir: etc})
	if !errors.Is(err, config.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(home, ".ncmirtools.toml")) {
		t.Fatalf("expected error to name the per-user file, got %q", err)
	}
}

func TestLoadMergesEtcAndHomeFiles(t *testing.T) {
	home := t.TempDir()
	etc := t.TempDir()

	writeConfig(t, filepath.Join(etc, "ncmirtools.toml"), `
[dataserver]
datadir = "/data/etc"
imagesuffix = ".dm4"

[sftp]
host = "etc.example.org"
port = 2222
`)
	writeConfig(t, filepath.Join(home, ".ncmirtools.toml"), `
[dataserver]
datadir = "/data/home"
transferlog = "/tmp/last.log"
`)

	cfg, files, err := config.Load(config.LoadOptions{HomeDir: home, EtcDir: etc})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected both files loaded, got %v", files)
	}
	if cfg.DataServer.DataDir != "/data/home" {
		t.Fatalf("expected per-user datadir to win, got %q", cfg.DataServer.DataDir)
	}
	if cfg.DataServer.ImageSuffix != ".dm4" {
		t.Fatalf("expected suffix from etc file, got %q", cfg.DataServer.ImageSuffix)
	}
	if cfg.SFTP.Host != "etc.example.org" || cfg.SFTP.Port != 2222 {
		t.Fatalf("unexpected sftp settings: %+v", cfg.SFTP)
	}
	if !cfg.HasSection(config.SectionSFTP) || cfg.HasSection(config.SectionCIL) {
		t.Fatal("section tracking mismatch")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeConfig(t, path, "[sftp]\nhost = \"h\"\n")

	cfg, files, err := config.Load(config.LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Fatalf("unexpected files: %v", files)
	}
	if cfg.SFTP.Port != 22 {
		t.Fatalf("expected default port 22, got %d", cfg.SFTP.Port)
	}
	if cfg.SFTP.ConnectTimeoutDuration() != 60*time.Second {
		t.Fatalf("expected default connect timeout, got %s", cfg.SFTP.ConnectTimeoutDuration())
	}
	if cfg.LockTimeout() != 10*time.Second {
		t.Fatalf("expected default lock timeout, got %s", cfg.LockTimeout())
	}
	if cfg.Lookup.PrefixDir != config.DefaultPrefixDir {
		t.Fatalf("unexpected prefix dir %q", cfg.Lookup.PrefixDir)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeConfig(t, path, "[dataserver\n")
	if _, _, err := config.Load(config.LoadOptions{Path: path}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvFallbacksForSecrets(t *testing.T) {
	t.Setenv("NCMIR_CIL_PASSWORD", "env-cil")
	t.Setenv("NCMIR_DB_PASSWORD", "env-db")
	t.Setenv("NCMIR_SFTP_PASSPHRASE", "env-pass")

	path := filepath.Join(t.TempDir(), "c.toml")
	writeConfig(t, path, "[cil]\nresturl = \"https://cil.example.org/\"\n")

	cfg, _, err := config.Load(config.LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CIL.RestPassword != "env-cil" {
		t.Errorf("expected CIL password from env, got %q", cfg.CIL.RestPassword)
	}
	if cfg.Database.Password != "env-db" {
		t.Errorf("expected database password from env, got %q", cfg.Database.Password)
	}
	if cfg.SFTP.PrivateKeyPassphrase != "env-pass" {
		t.Errorf("expected passphrase from env, got %q", cfg.SFTP.PrivateKeyPassphrase)
	}
	if cfg.CIL.RestURL != "https://cil.example.org" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.CIL.RestURL)
	}
}

func TestTypedAccessorsReportMissingOptions(t *testing.T) {
	cfg := config.Default()

	var missing *config.MissingOptionError
	if _, err := cfg.DataServerSettings(); !errors.As(err, &missing) || missing.Option != "" {
		t.Fatalf("expected missing section error, got %v", err)
	}
	if _, err := cfg.DataServerSettings(); err.Error() != "no [dataserver] section found in configuration" {
		t.Fatalf("unexpected message %q", err)
	}

	cfg.MarkSection(config.SectionDataServer, config.SectionSFTP, config.SectionDatabase)
	if _, err := cfg.DataServerSettings(); !errors.As(err, &missing) || missing.Option != "datadir" {
		t.Fatalf("expected missing datadir, got %v", err)
	}
	if _, _, err := cfg.TransferLogPaths(); !errors.As(err, &missing) || missing.Option != "transferlog" {
		t.Fatalf("expected missing transferlog, got %v", err)
	}

	cfg.DataServer.TransferLog = "/tmp/last.log"
	ledgerPath, lockPath, err := cfg.TransferLogPaths()
	if err != nil {
		t.Fatalf("TransferLogPaths: %v", err)
	}
	if ledgerPath != "/tmp/last.log" || lockPath != "/tmp/last.log.lock" {
		t.Fatalf("unexpected paths %q %q", ledgerPath, lockPath)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		option string
	}{
		{name: "host", mutate: func(c *config.Config) {}, option: "host"},
		{name: "user", mutate: func(c *config.Config) { c.SFTP.Host = "h" }, option: "user"},
		{name: "key", mutate: func(c *config.Config) { c.SFTP.Host = "h"; c.SFTP.User = "u" }, option: "private_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			tt.mutate(&c)
			_, err := c.SFTPSettings()
			if !errors.As(err, &missing) || missing.Option != tt.option {
				t.Fatalf("expected missing %s, got %v", tt.option, err)
			}
		})
	}

	if _, err := cfg.DatabaseSettings(); !errors.As(err, &missing) || missing.Option != "host" {
		t.Fatalf("expected missing database host, got %v", err)
	}
	cfg.Database.Driver = "sqlite"
	if _, err := cfg.DatabaseSettings(); !errors.As(err, &missing) || missing.Option != "path" {
		t.Fatalf("expected missing database path, got %v", err)
	}
	cfg.Database.Driver = "oracle"
	if _, err := cfg.DatabaseSettings(); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.DataServer.ImageSuffix != ".dm4" {
		t.Fatalf("expected sample suffix .dm4, got %q", cfg.DataServer.ImageSuffix)
	}
	if cfg.SFTP.DestDir == "" {
		t.Fatal("expected sample dest_dir")
	}

	loaded, _, err := config.Load(config.LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if err := loaded.ValidateLogging(); err != nil {
		t.Fatalf("sample logging invalid: %v", err)
	}
}
