package testsupport

import (
	"path/filepath"
	"testing"

	"ncmirtools/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The dataserver and sftp sections are marked present with usable values.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.DataServer.DataDir = filepath.Join(base, "data")
	cfgVal.DataServer.ImageSuffix = ".dm4"
	cfgVal.DataServer.TransferLog = filepath.Join(base, "state", "last_transferred_file.log")
	cfgVal.SFTP.Host = "kiosk.invalid"
	cfgVal.SFTP.User = "tester"
	cfgVal.SFTP.PrivateKey = filepath.Join(base, "id_test")
	cfgVal.SFTP.DestDir = "/data"
	cfgVal.MarkSection(config.SectionDataServer, config.SectionSFTP)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCIL fills the [cil] section.
func WithCIL(url, user, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CIL.RestURL = url
		b.cfg.CIL.RestUser = user
		b.cfg.CIL.RestPassword = password
		b.cfg.MarkSection(config.SectionCIL)
	}
}

// WithSQLiteCatalog points the [database] section at a file under the base
// directory.
func WithSQLiteCatalog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Database.Driver = "sqlite"
		b.cfg.Database.Path = filepath.Join(b.baseDir, "catalog.db")
		b.cfg.MarkSection(config.SectionDatabase)
	}
}

// WithMetricsTextfile enables the Prometheus textfile output.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "imagetokiosk.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.DataServer.DataDir)
}
