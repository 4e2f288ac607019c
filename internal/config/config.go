package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/previewsync/internal/config/loader"
)

// Source identifies the layer a setting came from.
type Source uint8

const (
	// SourceDefault is a built-in value.
	SourceDefault Source = iota
	// SourceFile is a value from the configuration file.
	SourceFile
	// SourceEnv is a value from a PREVIEWSYNC_ environment variable.
	SourceEnv
	// SourceArgs is a value from the command line.
	SourceArgs
)

// String returns the name of the source.
func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	case SourceArgs:
		return "args"
	default:
		return "unknown"
	}
}

// SyncConfig controls write-back of edited preview text.
type SyncConfig struct {
	// Delay is the quiet period after the last keystroke before a
	// preview element is reconciled into the source.
	Delay time.Duration
}

// ScanConfig controls the mutation-driven scan scheduler.
type ScanConfig struct {
	// Frame is the minimum spacing between scans.
	Frame time.Duration
	// Interval is the period of the safety sweep.
	Interval time.Duration
}

// RetryConfig controls how long a container waits for its source widget.
type RetryConfig struct {
	Attempts int
	Interval time.Duration
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
}

// WatchConfig controls reloading of the source file when it changes on disk.
type WatchConfig struct {
	Enabled  bool
	Debounce time.Duration
}

// Config is the merged configuration.
type Config struct {
	Sync    SyncConfig
	Scan    ScanConfig
	Retry   RetryConfig
	Logging LoggingConfig
	Watch   WatchConfig

	file    string
	origins map[string]Source
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{
		Sync:    SyncConfig{Delay: 300 * time.Millisecond},
		Scan:    ScanConfig{Frame: 16 * time.Millisecond, Interval: 1500 * time.Millisecond},
		Retry:   RetryConfig{Attempts: 30, Interval: 150 * time.Millisecond},
		Logging: LoggingConfig{Level: "info"},
		Watch:   WatchConfig{Debounce: 100 * time.Millisecond},
		origins: make(map[string]Source, len(settings)),
	}
	for _, s := range settings {
		c.origins[s.path] = SourceDefault
	}
	return c
}

// setting binds a dotted path to a Config field.
type setting struct {
	path string
	set  func(c *Config, path string, v any) error
	get  func(c *Config) any
}

var settings = []setting{
	{"sync.delay",
		func(c *Config, p string, v any) (err error) { c.Sync.Delay, err = toDuration(p, v); return },
		func(c *Config) any { return c.Sync.Delay }},
	{"scan.frame",
		func(c *Config, p string, v any) (err error) { c.Scan.Frame, err = toDuration(p, v); return },
		func(c *Config) any { return c.Scan.Frame }},
	{"scan.interval",
		func(c *Config, p string, v any) (err error) { c.Scan.Interval, err = toDuration(p, v); return },
		func(c *Config) any { return c.Scan.Interval }},
	{"retry.attempts",
		func(c *Config, p string, v any) (err error) { c.Retry.Attempts, err = toInt(p, v); return },
		func(c *Config) any { return c.Retry.Attempts }},
	{"retry.interval",
		func(c *Config, p string, v any) (err error) { c.Retry.Interval, err = toDuration(p, v); return },
		func(c *Config) any { return c.Retry.Interval }},
	{"logging.level",
		func(c *Config, p string, v any) (err error) { c.Logging.Level, err = toString(p, v); return },
		func(c *Config) any { return c.Logging.Level }},
	{"watch.enabled",
		func(c *Config, p string, v any) (err error) { c.Watch.Enabled, err = toBool(p, v); return },
		func(c *Config) any { return c.Watch.Enabled }},
	{"watch.debounce",
		func(c *Config, p string, v any) (err error) { c.Watch.Debounce, err = toDuration(p, v); return },
		func(c *Config) any { return c.Watch.Debounce }},
}

func lookupSetting(path string) (setting, bool) {
	for _, s := range settings {
		if s.path == path {
			return s, true
		}
	}
	return setting{}, false
}

// Settings returns the known setting paths in sorted order.
func Settings() []string {
	out := make([]string, len(settings))
	for i, s := range settings {
		out[i] = s.path
	}
	sort.Strings(out)
	return out
}

// File returns the configuration file that was loaded, if any.
func (c *Config) File() string {
	return c.file
}

// Origin returns the layer that supplied the value at path.
func (c *Config) Origin(path string) (Source, bool) {
	src, ok := c.origins[path]
	return src, ok
}

// Get returns the value at path.
func (c *Config) Get(path string) (any, bool) {
	s, ok := lookupSetting(path)
	if !ok {
		return nil, false
	}
	return s.get(c), true
}

// Set assigns value to path and records src as its origin.
func (c *Config) Set(path string, value any, src Source) error {
	s, ok := lookupSetting(path)
	if !ok {
		return &ValidationError{
			Path:    path,
			Message: "unknown setting",
			Value:   value,
			Code:    ErrCodeUnknownSetting,
		}
	}
	if err := s.set(c, path, value); err != nil {
		return err
	}
	if c.origins == nil {
		c.origins = make(map[string]Source)
	}
	c.origins[path] = src
	return nil
}

// Apply assigns every leaf of data, a nested map as produced by the
// loaders, and records src as its origin.
func (c *Config) Apply(data map[string]any, src Source) error {
	paths := loader.Paths(data)
	sort.Strings(paths)
	var errs []error
	for _, p := range paths {
		v, _ := loader.GetByPath(data, p)
		if err := c.Set(p, v, src); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Map returns the configuration as a nested map.
func (c *Config) Map() map[string]any {
	out := make(map[string]any)
	for _, s := range settings {
		loader.SetByPath(out, s.path, s.get(c))
	}
	return out
}

var levels = []string{"debug", "info", "warn", "error"}

// Validate checks that every value is in range.
func (c *Config) Validate() error {
	var errs []error
	positive := func(path string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, &ValidationError{
				Path:    path,
				Message: "must be positive",
				Value:   d,
				Code:    ErrCodeOutOfRange,
			})
		}
	}
	positive("sync.delay", c.Sync.Delay)
	positive("scan.frame", c.Scan.Frame)
	positive("scan.interval", c.Scan.Interval)
	positive("retry.interval", c.Retry.Interval)
	positive("watch.debounce", c.Watch.Debounce)

	if c.Retry.Attempts < 0 {
		errs = append(errs, &ValidationError{
			Path:    "retry.attempts",
			Message: "must not be negative",
			Value:   c.Retry.Attempts,
			Code:    ErrCodeOutOfRange,
		})
	}

	level := strings.ToLower(c.Logging.Level)
	known := false
	for _, l := range levels {
		if l == level {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, &ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %s", strings.Join(levels, ", ")),
			Value:   c.Logging.Level,
			Code:    ErrCodeInvalidEnum,
		})
	}
	return errors.Join(errs...)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// toDuration accepts duration strings, integer milliseconds and
// time.Duration values.
func toDuration(path string, v any) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	case uint64:
		return time.Duration(val) * time.Millisecond, nil
	case float64:
		return time.Duration(val * float64(time.Millisecond)), nil
	case string:
		s := strings.TrimSpace(val)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
}

func toInt(path string, v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		if val <= math.MaxInt32 {
			return int(val), nil
		}
	case float64:
		if val == math.Trunc(val) {
			return int(val), nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

func toBool(path string, v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b, nil
		}
	}
	return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
}

func toString(path string, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
}
