package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDataServer(); err != nil {
		return err
	}
	if err := c.normalizeSFTP(); err != nil {
		return err
	}
	c.normalizeCIL()
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	c.Lookup.PrefixDir = strings.TrimSpace(c.Lookup.PrefixDir)
	if c.Lookup.PrefixDir == "" {
		c.Lookup.PrefixDir = DefaultPrefixDir
	}
	return nil
}

func (c *Config) normalizeDataServer() error {
	var err error
	if c.DataServer.DataDir, err = expandPath(strings.TrimSpace(c.DataServer.DataDir)); err != nil {
		return fmt.Errorf("dataserver.datadir: %w", err)
	}
	if c.DataServer.TransferLog, err = expandPath(strings.TrimSpace(c.DataServer.TransferLog)); err != nil {
		return fmt.Errorf("dataserver.transferlog: %w", err)
	}
	if c.DataServer.LockFile, err = expandPath(strings.TrimSpace(c.DataServer.LockFile)); err != nil {
		return fmt.Errorf("dataserver.lockfile: %w", err)
	}
	c.DataServer.ImageSuffix = strings.TrimSpace(c.DataServer.ImageSuffix)
	if len(c.DataServer.DirsToExclude) > 0 {
		dirs := make([]string, 0, len(c.DataServer.DirsToExclude))
		for _, dir := range c.DataServer.DirsToExclude {
			if dir = strings.TrimSpace(dir); dir != "" {
				dirs = append(dirs, dir)
			}
		}
		c.DataServer.DirsToExclude = dirs
	}
	if c.DataServer.LockTimeout < 0 {
		c.DataServer.LockTimeout = defaultLockTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeSFTP() error {
	var err error
	c.SFTP.Host = strings.TrimSpace(c.SFTP.Host)
	c.SFTP.User = strings.TrimSpace(c.SFTP.User)
	c.SFTP.DestDir = strings.TrimSpace(c.SFTP.DestDir)
	if c.SFTP.Port <= 0 {
		c.SFTP.Port = defaultSFTPPort
	}
	if c.SFTP.ConnectTimeout <= 0 {
		c.SFTP.ConnectTimeout = defaultConnectTimeoutSeconds
	}
	if c.SFTP.PrivateKey, err = expandPath(strings.TrimSpace(c.SFTP.PrivateKey)); err != nil {
		return fmt.Errorf("sftp.private_key: %w", err)
	}
	if c.SFTP.KnownHosts, err = expandPath(strings.TrimSpace(c.SFTP.KnownHosts)); err != nil {
		return fmt.Errorf("sftp.known_hosts: %w", err)
	}
	if c.SFTP.PrivateKeyPassphrase == "" {
		if value, ok := os.LookupEnv("NCMIR_SFTP_PASSPHRASE"); ok {
			c.SFTP.PrivateKeyPassphrase = value
		}
	}
	return nil
}

func (c *Config) normalizeCIL() {
	c.CIL.RestURL = strings.TrimRight(strings.TrimSpace(c.CIL.RestURL), "/")
	c.CIL.RestUser = strings.TrimSpace(c.CIL.RestUser)
	if c.CIL.RestPassword == "" {
		if value, ok := os.LookupEnv("NCMIR_CIL_PASSWORD"); ok {
			c.CIL.RestPassword = value
		}
	}
	if c.CIL.RequestTimeout <= 0 {
		c.CIL.RequestTimeout = defaultCILRequestTimeout
	}
}

func (c *Config) normalizeDatabase() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDatabaseDriver
	}
	c.Database.Host = strings.TrimSpace(c.Database.Host)
	c.Database.User = strings.TrimSpace(c.Database.User)
	c.Database.Name = strings.TrimSpace(c.Database.Name)
	c.Database.SSLMode = strings.TrimSpace(c.Database.SSLMode)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = defaultDatabaseSSLMode
	}
	if c.Database.Port <= 0 {
		c.Database.Port = defaultDatabasePort
	}
	if c.Database.Password == "" {
		if value, ok := os.LookupEnv("NCMIR_DB_PASSWORD"); ok {
			c.Database.Password = value
		}
	}
	var err error
	if c.Database.Path, err = expandPath(strings.TrimSpace(c.Database.Path)); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level

	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = defaultLogMaxBackups
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
