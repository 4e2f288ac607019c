package loader

import (
	"testing"
	"time"
)

func fixedEnv(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestEnvLoader_Load(t *testing.T) {
	loader := NewEnvLoader(DefaultEnvPrefix)
	loader.lookup = fixedEnv(
		"PREVIEWSYNC_SYNC_DELAY=250ms",
		"PREVIEWSYNC_SCAN_INTERVAL=2000",
		"PREVIEWSYNC_LOG_LEVEL=debug",
		"PREVIEWSYNC_WATCH_ENABLED=yes",
		"HOME=/root",
	)

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"sync.delay", 250 * time.Millisecond},
		{"scan.interval", int64(2000)},
		{"logging.level", "debug"},
		{"watch.enabled", true},
	}
	for _, tt := range tests {
		if val, ok := GetByPath(config, tt.path); !ok || val != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, val, val, tt.want)
		}
	}
	if _, ok := config["home"]; ok {
		t.Error("unprefixed variable loaded")
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	loader := NewEnvLoaderWithMapping(DefaultEnvPrefix, nil)
	loader.AddMapping("PS_DELAY", "sync.delay")
	loader.lookup = fixedEnv("PS_DELAY=1s")

	config, _ := loader.Load()
	if val, ok := GetByPath(config, "sync.delay"); !ok || val != time.Second {
		t.Errorf("sync.delay = %v, want 1s", val)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		env      string
		expected string
	}{
		{"PREVIEWSYNC_SYNC_DELAY", "sync.delay"},
		{"PREVIEWSYNC_RETRY_ATTEMPTS", "retry.attempts"},
		{"PREVIEWSYNC_SIMPLE", "simple"},
		{"PREVIEWSYNC_WATCH_DEBOUNCE_MS", "watch.debounceMs"},
	}

	for _, tt := range tests {
		got := loader.envToPath(tt.env)
		if got != tt.expected {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.expected)
		}
	}
}

func TestEnvLoader_parseValue(t *testing.T) {
	loader := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		input    string
		expected any
	}{
		{"true", true},
		{"TRUE", true},
		{"on", true},
		{"no", false},
		{"off", false},
		{"1", int64(1)},
		{"0", int64(0)},
		{"300", int64(300)},
		{"-10", int64(-10)},
		{"500ms", 500 * time.Millisecond},
		{"1.5s", 1500 * time.Millisecond},
		{"2.5", 2.5},
		{"info", "info"},
		{"", ""},
	}

	for _, tt := range tests {
		got := loader.parseValue(tt.input)
		if got != tt.expected {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)",
				tt.input, got, got, tt.expected, tt.expected)
		}
	}
}
