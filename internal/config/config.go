package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrConfigMissing reports that none of the searched configuration files exist.
var ErrConfigMissing = errors.New("no configuration file found")

// DataServer describes the local acquisition directory watched by the kiosk
// pipeline and the files that track its progress.
type DataServer struct {
	DataDir       string   `toml:"datadir"`
	ImageSuffix   string   `toml:"imagesuffix"`
	DirsToExclude []string `toml:"dirstoexclude"`
	TransferLog   string   `toml:"transferlog"`
	LockFile      string   `toml:"lockfile"`
	LockTimeout   int      `toml:"lock_timeout_seconds"`
}

// SFTP contains connection settings for the remote kiosk server.
type SFTP struct {
	Host                 string `toml:"host"`
	User                 string `toml:"user"`
	Port                 int    `toml:"port"`
	PrivateKey           string `toml:"private_key"`
	PrivateKeyPassphrase string `toml:"private_key_passphrase"`
	ConnectTimeout       int    `toml:"connect_timeout_seconds"`
	DestDir              string `toml:"dest_dir"`
	KnownHosts           string `toml:"known_hosts"`
}

// CIL contains the Cell Image Library registration endpoint and credentials.
type CIL struct {
	RestURL        string `toml:"resturl"`
	RestUser       string `toml:"restuser"`
	RestPassword   string `toml:"restpassword"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
}

// Database contains the connection settings for the project catalog.
type Database struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
	// Path is the database file used when Driver is "sqlite".
	Path string `toml:"path"`
}

// Lookup contains the directory search template used by mpidir/projectdir.
type Lookup struct {
	PrefixDir string `toml:"prefixdir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Metrics contains the optional Prometheus textfile destination.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Notifications contains the optional ntfy endpoint alerted about transfers.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
	// NotifySuccess also sends a message for successful transfers.
	NotifySuccess bool `toml:"notify_success"`
}

// Config encapsulates all configuration values for ncmirtools.
//
// Configuration sections by tool:
//   - DataServer: kiosk source directory, transfer log, and lock file
//   - SFTP: remote kiosk server used by imagetokiosk and cilupload
//   - CIL: REST registration service used by cilupload
//   - Database: project catalog used by projectsearch and mpidinfo
//   - Lookup: directory template used by mpidir and projectdir
//   - Logging: log format, level, and optional rotated file
//   - Metrics: Prometheus textfile written after kiosk runs
//   - Notifications: ntfy topic alerted when transfers fail
type Config struct {
	DataServer DataServer `toml:"dataserver"`
	SFTP       SFTP       `toml:"sftp"`
	CIL        CIL        `toml:"cil"`
	Database   Database   `toml:"database"`
	Lookup     Lookup     `toml:"lookup"`
	Logging    Logging    `toml:"logging"`
	Metrics    Metrics    `toml:"metrics"`

	Notifications Notifications `toml:"notifications"`

	sections map[string]struct{}
}

// LoadOptions controls where Load looks for configuration files.
type LoadOptions struct {
	// Path names an explicit configuration file and disables the search.
	Path string
	// HomeDir overrides the directory holding the per-user file.
	HomeDir string
	// EtcDir overrides the directory holding the system-wide file.
	EtcDir string
}

// Files returns the configuration files Load considers, lowest precedence
// first.
func (o LoadOptions) Files() ([]string, error) {
	if strings.TrimSpace(o.Path) != "" {
		expanded, err := expandPath(strings.TrimSpace(o.Path))
		if err != nil {
			return nil, err
		}
		return []string{expanded}, nil
	}

	etcDir := strings.TrimSpace(o.EtcDir)
	if etcDir == "" {
		etcDir = defaultEtcDir
	}
	homeDir := strings.TrimSpace(o.HomeDir)
	if homeDir == "" {
		homeDir = "~"
	}
	homeDir, err := expandPath(homeDir)
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return []string{
		filepath.Join(etcDir, etcConfigFile),
		filepath.Join(homeDir, configFileName),
	}, nil
}

// Load reads every configuration file named by opts that exists, merging them
// in order onto the defaults. It returns the files that were read. When none
// exist the error wraps ErrConfigMissing.
func Load(opts LoadOptions) (*Config, []string, error) {
	cfg := Default()
	cfg.sections = make(map[string]struct{})

	candidates, err := opts.Files()
	if err != nil {
		return nil, nil, err
	}

	var loaded []string
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	if len(loaded) == 0 {
		return nil, nil, fmt.Errorf("%w here: %s", ErrConfigMissing, strings.Join(candidates, ", "))
	}

	if err := cfg.normalize(); err != nil {
		return nil, nil, err
	}
	return &cfg, loaded, nil
}

func (c *Config) decode(data []byte) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if _, ok := value.(map[string]any); ok {
			c.sections[key] = struct{}{}
		}
	}
	return toml.Unmarshal(data, c)
}

// HasSection reports whether any loaded file declared the named table.
func (c *Config) HasSection(name string) bool {
	if c == nil || c.sections == nil {
		return false
	}
	_, ok := c.sections[name]
	return ok
}

// MarkSection records a table as present. Tests and callers that assemble a
// Config in code use it in place of a loaded file.
func (c *Config) MarkSection(names ...string) {
	if c.sections == nil {
		c.sections = make(map[string]struct{})
	}
	for _, name := range names {
		c.sections[name] = struct{}{}
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
