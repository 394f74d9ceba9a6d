package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := filepath.Join(t.TempDir(), "cache")
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestSettingsPathXDG(t *testing.T) {
	customConfig := filepath.Join(t.TempDir(), "config")
	t.Setenv("XDG_CONFIG_HOME", customConfig)

	expected := filepath.Join(customConfig, appName, "settings.toml")
	if got := settingsPath(); got != expected {
		t.Errorf("settingsPath() = %q, want %q", got, expected)
	}
}

func TestSettingsCacheDirOverride(t *testing.T) {
	s := &Settings{Cache: CacheSettings{Dir: "/var/cache/bonnie"}}
	dir, err := s.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/var/cache/bonnie" {
		t.Errorf("cacheDir() = %q, want cache.dir value", dir)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"ab/one.json", "cd/two.json", "three.json"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if count != 3 {
		t.Errorf("clearDir() = %d, want 3", count)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}

	if n, err := clearDir(filepath.Join(dir, "missing")); err != nil || n != 0 {
		t.Errorf("clearDir(missing) = %d, %v", n, err)
	}
}
