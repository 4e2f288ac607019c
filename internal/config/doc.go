// Package config holds previewsync's settings.
//
// Settings are merged from layers, lowest precedence first:
//
//	defaults     built in
//	file         previewsync.toml or previewsync.yaml
//	environment  PREVIEWSYNC_SYNC_DELAY, PREVIEWSYNC_LOG_LEVEL, ...
//	arguments    command line flags
//
// A file looks like:
//
//	[sync]
//	delay = "300ms"
//
//	[scan]
//	frame = "16ms"
//	interval = "1500ms"
//
//	[retry]
//	attempts = 30
//	interval = 150
//
//	[logging]
//	level = "info"
//
//	[watch]
//	enabled = false
//	debounce = "100ms"
//
// Durations are Go duration strings or integer milliseconds.
//
// # Error Handling
//
//   - ErrInvalidValue wraps *TypeError when a value has the wrong type
//   - ErrValidationFailed wraps *ValidationError for out-of-range values
//     and unknown settings
//   - loader.ParseError for malformed files
package config
