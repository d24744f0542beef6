package config

const (
	configFileName = ".ncmirtools.toml"
	etcConfigFile  = "ncmirtools.toml"
	defaultEtcDir  = "/etc"

	defaultSFTPPort              = 22
	defaultConnectTimeoutSeconds = 60
	defaultLockTimeoutSeconds    = 10
	defaultCILRequestTimeout     = 30
	defaultNtfyRequestTimeout    = 10
	defaultDatabaseDriver        = "postgres"
	defaultDatabasePort          = 5432
	defaultDatabaseSSLMode       = "disable"
	defaultLogFormat             = "console"
	defaultLogLevel              = "warn"
	defaultLogMaxSizeMB          = 10
	defaultLogMaxBackups         = 3

	// DefaultPrefixDir is the CCDB acquisition layout searched by mpidir and
	// projectdir.
	DefaultPrefixDir = "/ccdbprod/ccdbprod<VOLUME_ID>/home/CCDB_DATA_USER.portal" +
		"/CCDB_DATA_USER/acquisition/project_<PROJECT_ID>/microscopy_<MP_ID>"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DataServer: DataServer{
			LockTimeout: defaultLockTimeoutSeconds,
		},
		SFTP: SFTP{
			Port:           defaultSFTPPort,
			ConnectTimeout: defaultConnectTimeoutSeconds,
		},
		CIL: CIL{
			RequestTimeout: defaultCILRequestTimeout,
		},
		Database: Database{
			Driver:  defaultDatabaseDriver,
			Port:    defaultDatabasePort,
			SSLMode: defaultDatabaseSSLMode,
		},
		Lookup: Lookup{
			PrefixDir: DefaultPrefixDir,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
	}
}
