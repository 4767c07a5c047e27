package config

const (
	defaultPhotosDir    = "~/.local/share/birdhouse/photos"
	defaultLogDir       = "~/.local/share/birdhouse/logs"
	defaultSettingsFile = "~/.config/birdhouse/settings.json"
	defaultJournalPath  = "~/.local/share/birdhouse/journal.db"

	// Site coordinates (Colorado) and its fixed standard-time offset.
	defaultLatitude  = 39.74
	defaultLongitude = -104.99
	defaultUTCOffset = -7

	defaultCameraBinary   = "libcamera-still"
	defaultCaptureTimeout = 30
	defaultDayTimeoutMS   = 5000
	defaultNightShutterUS = 1_000_000
	defaultNightGain      = 8
	defaultAWB            = "tungsten"

	defaultPixelDiffThreshold  = 30
	defaultChangedPctThreshold = 3.0
	defaultBurstCount          = 15
	defaultBurstInterval       = 10

	defaultNotifyRequestTimeout = 10

	defaultDashboardBind = "0.0.0.0:5000"

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			PhotosDir:    defaultPhotosDir,
			LogDir:       defaultLogDir,
			SettingsFile: defaultSettingsFile,
			JournalPath:  defaultJournalPath,
		},
		Solar: Solar{
			Latitude:       defaultLatitude,
			Longitude:      defaultLongitude,
			UTCOffsetHours: defaultUTCOffset,
		},
		Camera: Camera{
			Binary:         defaultCameraBinary,
			CaptureTimeout: defaultCaptureTimeout,
			DayTimeoutMS:   defaultDayTimeoutMS,
			NightShutterUS: defaultNightShutterUS,
			NightGain:      defaultNightGain,
			AWB:            defaultAWB,
		},
		Motion: Motion{
			PixelDiffThreshold:  defaultPixelDiffThreshold,
			ChangedPctThreshold: defaultChangedPctThreshold,
			BurstCount:          defaultBurstCount,
			BurstInterval:       defaultBurstInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Motion:         true,
			Digest:         true,
			Errors:         true,
		},
		Dashboard: Dashboard{
			Enabled: true,
			Bind:    defaultDashboardBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
