/*
Package log provides structured logging for QuickLaunch using zerolog,
with optional file rotation via lumberjack.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  Global Logger (zerolog.Logger)                           │
	│    - initialized via log.Init()                           │
	│    - thread-safe for concurrent use                       │
	│                                                            │
	│  Configuration                                             │
	│    - Level: debug/info/warn/error                         │
	│    - Format: JSON or console                               │
	│    - Rotation: optional lumberjack.Logger writer           │
	│                                                            │
	│  Context Loggers                                           │
	│    - WithComponent("lifecycle")                            │
	│    - WithAppID("app-abc123")                               │
	│    - WithRequestID("req-xyz")                              │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Rotation: &log.RotationConfig{
			Filename:   "/var/log/quicklaunch/quicklaunch.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Compress:   true,
		},
	})

	log.Info("supervisor starting")

	appLog := log.WithAppID("app-abc123")
	appLog.Info().Int("port", 3000).Msg("app started")

# Log Rotation

Rotation applies only to this operational log. The append-only
troubleshooting and resolutions logs written by pkg/diagnostics are
domain records, not operational logs, and are never rotated or
truncated by this package.

# Best Practices

Do:
  - use Info level in production
  - use structured fields for queryable data
  - create component/app-specific child loggers

Don't:
  - log secrets or credentials
  - use Debug level in production
  - concatenate user input into message strings

# See Also

  - Zerolog: https://github.com/rs/zerolog
  - Lumberjack: https://github.com/natefinch/lumberjack
*/
package log
