package config

import (
	"fmt"
	"strings"
	"time"
)

// Section names as they appear in the TOML files.
const (
	SectionDataServer = "dataserver"
	SectionSFTP       = "sftp"
	SectionCIL        = "cil"
	SectionDatabase   = "database"
)

// MissingOptionError reports a required section or option that is absent from
// the loaded configuration. Option is empty when the whole section is missing.
type MissingOptionError struct {
	Section string
	Option  string
}

func (e *MissingOptionError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("no [%s] section found in configuration", e.Section)
	}
	return fmt.Sprintf("no %s option found in [%s] section of configuration", e.Option, e.Section)
}

func missing(section, option string) error {
	return &MissingOptionError{Section: section, Option: option}
}

// DataServerSettings returns the kiosk source settings. datadir is required.
func (c *Config) DataServerSettings() (DataServer, error) {
	if !c.HasSection(SectionDataServer) {
		return DataServer{}, missing(SectionDataServer, "")
	}
	if c.DataServer.DataDir == "" {
		return DataServer{}, missing(SectionDataServer, "datadir")
	}
	return c.DataServer, nil
}

// TransferLogPaths returns the ledger path and the lock path guarding it. The
// lock defaults to the ledger path with a .lock suffix.
func (c *Config) TransferLogPaths() (ledgerPath, lockPath string, err error) {
	if !c.HasSection(SectionDataServer) {
		return "", "", missing(SectionDataServer, "")
	}
	if c.DataServer.TransferLog == "" {
		return "", "", missing(SectionDataServer, "transferlog")
	}
	lockPath = c.DataServer.LockFile
	if lockPath == "" {
		lockPath = c.DataServer.TransferLog + ".lock"
	}
	return c.DataServer.TransferLog, lockPath, nil
}

// LockTimeout returns the kiosk lock acquisition timeout.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.DataServer.LockTimeout) * time.Second
}

// SFTPSettings returns the remote server settings. host, user, and
// private_key are required; dest_dir is checked by the transport at transfer
// time.
func (c *Config) SFTPSettings() (SFTP, error) {
	if !c.HasSection(SectionSFTP) {
		return SFTP{}, missing(SectionSFTP, "")
	}
	switch {
	case c.SFTP.Host == "":
		return SFTP{}, missing(SectionSFTP, "host")
	case c.SFTP.User == "":
		return SFTP{}, missing(SectionSFTP, "user")
	case c.SFTP.PrivateKey == "":
		return SFTP{}, missing(SectionSFTP, "private_key")
	}
	return c.SFTP, nil
}

// ConnectTimeoutDuration returns the SSH connect timeout.
func (s SFTP) ConnectTimeoutDuration() time.Duration {
	return time.Duration(s.ConnectTimeout) * time.Second
}

// CILSettings returns the registration service settings. Individual fields
// are validated by the upload coordinator so each gap is reported separately.
func (c *Config) CILSettings() CIL {
	return c.CIL
}

// RequestTimeoutDuration returns the HTTP timeout for registration calls.
func (c CIL) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// DatabaseSettings returns the catalog connection settings.
func (c *Config) DatabaseSettings() (Database, error) {
	if !c.HasSection(SectionDatabase) {
		return Database{}, missing(SectionDatabase, "")
	}
	db := c.Database
	switch db.Driver {
	case "sqlite":
		if db.Path == "" {
			return Database{}, missing(SectionDatabase, "path")
		}
	case "postgres":
		switch {
		case db.Host == "":
			return Database{}, missing(SectionDatabase, "host")
		case db.User == "":
			return Database{}, missing(SectionDatabase, "user")
		case db.Name == "":
			return Database{}, missing(SectionDatabase, "name")
		}
	default:
		return Database{}, fmt.Errorf("database.driver: unsupported value %q", db.Driver)
	}
	return db, nil
}

// RequestTimeoutDuration returns the timeout applied to each ntfy request.
func (n Notifications) RequestTimeoutDuration() time.Duration {
	return time.Duration(n.RequestTimeout) * time.Second
}

// ValidateLogging ensures the logging section is usable.
func (c *Config) ValidateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
