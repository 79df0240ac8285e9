// Package logging provides structured logging with per-module log levels.
//
// # Overview
//
// Every logger is a *slog.Logger tagged with a "module" attribute. Records
// are fanned out to:
//   - stdout (text or JSON) when a terminal, pipe or file is attached
//   - the systemd journal when journald is reachable
//   - an in-memory history of recent entries served by the HTTP API
//
// # Usage
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"led":   "debug",
//			"relay": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("relay")
//	logger.Info("Door is OPEN", "pin", "GPIO20")
//
// Levels are backed by slog.LevelVar, so UpdateLevels applies an edited
// config to loggers that already exist.
//
// # Viewing Logs
//
//	journalctl -t doorlight -f
//	journalctl -t doorlight MODULE=led
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	led = "debug"
package logging
