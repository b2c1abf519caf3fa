package config

const (
	defaultSrc                    = "."
	defaultDest                   = "dist"
	defaultNoZoom                 = true
	defaultUseNativeResizeBackend = true
	defaultMaxCacheAge            = 0
	defaultLogLevel               = "info"
	defaultLogFormat              = "console"
	defaultWatchIntervalSeconds   = 2
)

var (
	defaultReplaceIn = []string{".html", ".css", ".js"}
	defaultExclude   = []string{"dist/**", ".git/**"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Src:  defaultSrc,
			Dest: defaultDest,
		},
		Resize: Resize{
			ReplaceIn:              append([]string(nil), defaultReplaceIn...),
			NoZoom:                 defaultNoZoom,
			UseNativeResizeBackend: defaultUseNativeResizeBackend,
			MaxCacheAge:            defaultMaxCacheAge,
			Exclude:                append([]string(nil), defaultExclude...),
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Watch: Watch{
			IntervalSeconds: defaultWatchIntervalSeconds,
		},
	}
}
