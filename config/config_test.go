package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestDefaultRequestSettings(t *testing.T) {
	s := DefaultRequestSettings()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Delay", s.Delay, 1100 * time.Millisecond},
		{"MaxAttempts", s.MaxAttempts, 3},
		{"Backoff", s.Backoff, 2 * time.Second},
		{"RateLimitMargin", s.RateLimitMargin, 5 * time.Second},
		{"BaseURL", s.BaseURL, "https://api.github.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("DefaultRequestSettings().%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestGetRequestSettings(t *testing.T) {
	t.Run("returns defaults when no overrides", func(t *testing.T) {
		cfg := &Config{}
		if got := cfg.GetRequestSettings(); got != DefaultRequestSettings() {
			t.Errorf("GetRequestSettings() = %+v, want defaults", got)
		}
	})

	t.Run("applies overrides", func(t *testing.T) {
		cfg := &Config{Requests: &RequestOverrides{
			DelayMs:     intPtr(0),
			MaxAttempts: intPtr(5),
			BaseURL:     "http://localhost:8080/",
		}}
		got := cfg.GetRequestSettings()
		if got.Delay != 0 {
			t.Errorf("Delay = %v, want 0", got.Delay)
		}
		if got.MaxAttempts != 5 {
			t.Errorf("MaxAttempts = %d, want 5", got.MaxAttempts)
		}
		if got.Backoff != 2*time.Second {
			t.Errorf("Backoff = %v, want default", got.Backoff)
		}
		if got.BaseURL != "http://localhost:8080/" {
			t.Errorf("BaseURL = %q", got.BaseURL)
		}
	})

	t.Run("ignores invalid attempt count", func(t *testing.T) {
		cfg := &Config{Requests: &RequestOverrides{MaxAttempts: intPtr(0)}}
		if got := cfg.GetRequestSettings().MaxAttempts; got != 3 {
			t.Errorf("MaxAttempts = %d, want 3", got)
		}
	})
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing-local.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Username != DefaultUsername {
		t.Errorf("Username = %q, want %q", cfg.Username, DefaultUsername)
	}
	if cfg.OutputPath != DefaultOutputPath {
		t.Errorf("OutputPath = %q, want %q", cfg.OutputPath, DefaultOutputPath)
	}
	if cfg.CachePath != DefaultCachePath {
		t.Errorf("CachePath = %q, want %q", cfg.CachePath, DefaultCachePath)
	}
	if cfg.FeaturedPath != DefaultFeaturedPath {
		t.Errorf("FeaturedPath = %q, want %q", cfg.FeaturedPath, DefaultFeaturedPath)
	}
	if !cfg.HistoryEnabled() {
		t.Error("expected history to default to enabled")
	}
}

func TestLoadFromMergesLocalOverGlobal(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.yaml")
	localPath := filepath.Join(dir, "local.yaml")

	global := "username: octocat\noutput_path: out/global.json\nrequests:\n  delay_ms: 500\n  max_attempts: 4\n"
	local := "output_path: out/local.json\nhistory: false\nrequests:\n  delay_ms: 0\n"

	if err := os.WriteFile(globalPath, []byte(global), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(localPath, []byte(local), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(globalPath, localPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Username != "octocat" {
		t.Errorf("Username = %q, want global value", cfg.Username)
	}
	if cfg.OutputPath != "out/local.json" {
		t.Errorf("OutputPath = %q, want local value", cfg.OutputPath)
	}
	if cfg.HistoryEnabled() {
		t.Error("expected local history: false to win")
	}

	s := cfg.GetRequestSettings()
	if s.Delay != 0 {
		t.Errorf("Delay = %v, want local 0", s.Delay)
	}
	if s.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want global 4", s.MaxAttempts)
	}
}

func TestLoadFromRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("username: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path, filepath.Join(dir, "none.yaml")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	out, err := DefaultConfig().ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	if err := SaveTo(path, out); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	cfg, err := LoadFrom(path, filepath.Join(dir, "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got := cfg.GetRequestSettings(); got != DefaultRequestSettings() {
		t.Errorf("settings after round trip = %+v, want defaults", got)
	}
}

func TestGetGitHubTokenPrefersEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")

	token, source := (&Config{}).GetGitHubToken()
	if token != "env-token" {
		t.Errorf("token = %q, want env-token", token)
	}
	if source != "GITHUB_TOKEN" {
		t.Errorf("source = %q, want GITHUB_TOKEN", source)
	}
}
