package config

import "runtime"

const (
	defaultConfigPath   = "~/.config/dubmux/config.toml"
	projectConfigName   = "dubmux.toml"
	defaultLogDir       = "~/.local/share/dubmux/logs"
	defaultHistoryPath  = "~/.local/share/dubmux/history.db"
	defaultTempDirName  = ".dubmux-tmp"
	defaultDirection    = "vf_to_vostfr"
	defaultDefaultTrack = "original"
	defaultMultiTag     = "MULTi"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultLogMaxSizeMB = 20
	defaultLogBackups   = 5
	defaultLogMaxAge    = 60
	defaultHistoryLimit = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:        defaultLogDir,
			TempDirName:   defaultTempDirName,
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Batch: Batch{
			Workers:      runtime.NumCPU(),
			Direction:    defaultDirection,
			DefaultTrack: defaultDefaultTrack,
			MultiTag:     defaultMultiTag,
		},
		Languages: Languages{
			OriginalCodes:    []string{"jpn", "ja", "japanese"},
			OriginalPrefixes: []string{"jp"},
			TargetCodes:      []string{"fra", "fre", "fr"},
			OriginalTag:      "jpn",
			TargetTag:        "fra",
			OriginalTitle:    "VO (Japonais)",
			TargetTitle:      "VF",
		},
		Sync: Sync{
			FilmRateNum: 24000,
			FilmRateDen: 1001,
			PALRate:     25.0,
			Tolerance:   0.02,
			SpeedFactor: 0.95904,
		},
		History: History{
			Path:  defaultHistoryPath,
			Limit: defaultHistoryLimit,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogBackups,
			MaxAgeDays: defaultLogMaxAge,
		},
	}
}
