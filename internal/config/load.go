package config

import (
	"fmt"

	"github.com/dshills/previewsync/internal/config/loader"
)

// Option configures Load.
type Option func(*options)

type options struct {
	file      string
	fs        loader.FileSystem
	env       bool
	prefix    string
	environ   func() []string
	overrides map[string]any
}

// WithFile loads path as the file layer. A missing file is not an error.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithFS sets the filesystem used to read the file layer.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnviron sets the environment source, os.Environ by default.
func WithEnviron(environ func() []string) Option {
	return func(o *options) { o.environ = environ }
}

// WithoutEnv skips the environment layer.
func WithoutEnv() Option {
	return func(o *options) { o.env = false }
}

// WithOverrides sets the argument layer. Keys are dotted setting paths.
func WithOverrides(values map[string]any) Option {
	return func(o *options) { o.overrides = values }
}

// Load merges defaults, the file, the environment and overrides, in that
// order, and validates the result.
func Load(opts ...Option) (*Config, error) {
	o := options{env: true, prefix: loader.DefaultEnvPrefix, fs: loader.DefaultFS()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	if o.file != "" {
		fl, err := loader.NewFileLoaderWithFS(o.fs, o.file)
		if err != nil {
			return nil, err
		}
		data, err := fl.Load()
		if err != nil {
			return nil, err
		}
		if data != nil {
			cfg.file = o.file
			if err := cfg.Apply(data, SourceFile); err != nil {
				return nil, fmt.Errorf("%s: %w", o.file, err)
			}
		}
	}

	if o.env {
		el := loader.NewEnvLoader(o.prefix)
		el.SetLookup(o.environ)
		data, err := el.Load()
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(data, SourceEnv); err != nil {
			return nil, fmt.Errorf("environment: %w", err)
		}
	}

	if len(o.overrides) > 0 {
		data := make(map[string]any)
		for path, v := range o.overrides {
			loader.SetByPath(data, path, v)
		}
		if err := cfg.Apply(data, SourceArgs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
