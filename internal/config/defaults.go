package config

const (
	defaultRoot             = "~/ignite/projects"
	defaultStateDir         = "~/.local/share/ignite"
	defaultLogDir           = "~/.local/share/ignite/logs"
	defaultVersionPadding   = 3
	defaultTempInfix        = ".tmp"
	defaultReprMaxHops      = 32
	defaultDiscoveryWorkers = 4
	defaultServerBind       = "127.0.0.1:9090"
	defaultJournalFile      = "journal.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	// EnvRoot, when set, overrides paths.root from the config file.
	EnvRoot = "IGNITE_ROOT"
)

var defaultThumbnailExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".exr", ".mp4", ".mov"}

// DefaultTagWeights returns the tag weights used to rank versions when the
// configuration does not provide its own table.
func DefaultTagWeights() map[string]int {
	return map[string]int{
		"approved":   1,
		"deprecated": -100,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root:     defaultRoot,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Store: Store{
			VersionPadding:      defaultVersionPadding,
			TempInfix:           defaultTempInfix,
			ReprMaxHops:         defaultReprMaxHops,
			ThumbnailExtensions: append([]string(nil), defaultThumbnailExtensions...),
			DiscoveryWorkers:    defaultDiscoveryWorkers,
			TagWeights:          DefaultTagWeights(),
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
