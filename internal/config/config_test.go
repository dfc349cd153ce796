package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("NEXIATRAY_CONFIG_PATH", filepath.Join(t.TempDir(), "settings.enc"))

	settings, err := Load("secret")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.BackendURL != DefaultBackendURL {
		t.Fatalf("expected default backend %q, got %q", DefaultBackendURL, settings.BackendURL)
	}
	if settings.RequestTimeoutSec != DefaultRequestTimeoutSec {
		t.Fatalf("expected default timeout, got %d", settings.RequestTimeoutSec)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.enc")
	t.Setenv("NEXIATRAY_CONFIG_PATH", path)

	settings := Default()
	settings.BackendURL = "http://127.0.0.1:9999/"
	settings.AllowedEndpoints = []string{"/api/v1", " "}
	if err := Save(&settings, "secret"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if len(raw) < saltSize+nonceSize {
		t.Fatalf("saved file too short: %d bytes", len(raw))
	}

	loaded, err := Load("secret")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.BackendURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected trailing slash trimmed, got %q", loaded.BackendURL)
	}
	if len(loaded.AllowedEndpoints) != 1 || loaded.AllowedEndpoints[0] != "/api/v1" {
		t.Fatalf("unexpected allow-list: %#v", loaded.AllowedEndpoints)
	}
	if loaded.UpdatedUTC == "" {
		t.Fatalf("expected UpdatedUTC to be stamped")
	}
}

func TestLoadWrongPassphraseFails(t *testing.T) {
	t.Setenv("NEXIATRAY_CONFIG_PATH", filepath.Join(t.TempDir(), "settings.enc"))

	settings := Default()
	if err := Save(&settings, "secret"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := Load("other"); err == nil {
		t.Fatalf("expected decryption failure with wrong passphrase")
	}
}

func TestLoadRequiresPassphrase(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty passphrase")
	}
}

func TestLoadFileYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	content := "backend_url: http://cluster:9090\nallowed_endpoints:\n  - /health\n  - /api\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	settings := Default()
	if err := LoadFile(path, &settings); err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if settings.BackendURL != "http://cluster:9090" {
		t.Fatalf("unexpected backend url %q", settings.BackendURL)
	}
	if len(settings.AllowedEndpoints) != 2 {
		t.Fatalf("expected 2 allowed endpoints, got %#v", settings.AllowedEndpoints)
	}
	if settings.IPCAddr != DefaultIPCAddr {
		t.Fatalf("overlay should leave absent keys untouched, got %q", settings.IPCAddr)
	}
}

func TestLoadFileTOMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.toml")
	content := "request_timeout_sec = 5\nredis_addr = \"127.0.0.1:6379\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	settings := Default()
	if err := LoadFile(path, &settings); err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if settings.RequestTimeoutSec != 5 {
		t.Fatalf("expected timeout 5, got %d", settings.RequestTimeoutSec)
	}
	if settings.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("unexpected redis addr %q", settings.RedisAddr)
	}
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.ini")
	if err := os.WriteFile(path, []byte("x=1"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	settings := Default()
	if err := LoadFile(path, &settings); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"NEXIATRAY_BACKEND_URL":       "http://env:1",
		"NEXIATRAY_TIMEOUT_SEC":       "7",
		"NEXIATRAY_ALLOWED_ENDPOINTS": "/a, /b,,",
		"NEXIATRAY_SERVICE_ADDR":      "127.0.0.1:1",
		"NEXIATRAY_MAX_AUDIO_BYTES":   "not-a-number",
	}
	settings := Default()
	ApplyEnv(&settings, func(key string) string { return env[key] })

	if settings.BackendURL != "http://env:1" {
		t.Fatalf("unexpected backend url %q", settings.BackendURL)
	}
	if settings.RequestTimeoutSec != 7 {
		t.Fatalf("expected timeout 7, got %d", settings.RequestTimeoutSec)
	}
	if len(settings.AllowedEndpoints) != 2 || settings.AllowedEndpoints[1] != "/b" {
		t.Fatalf("unexpected allow-list %#v", settings.AllowedEndpoints)
	}
	if settings.IPCAddr != "127.0.0.1:1" {
		t.Fatalf("unexpected ipc addr %q", settings.IPCAddr)
	}
	if settings.MaxAudioBytes != DefaultMaxAudioBytes {
		t.Fatalf("invalid number should be ignored, got %d", settings.MaxAudioBytes)
	}
}

func TestNormalizeRestoresDefaults(t *testing.T) {
	settings := Settings{RequestTimeoutSec: -1, BackendURL: "  "}
	settings.Normalize()
	if settings.BackendURL != DefaultBackendURL || settings.RequestTimeoutSec != DefaultRequestTimeoutSec {
		t.Fatalf("defaults not restored: %#v", settings)
	}
	if settings.AllowedEndpoints != nil {
		t.Fatalf("expected nil allow-list, got %#v", settings.AllowedEndpoints)
	}
}

func TestResolveLayersStoreOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NEXIATRAY_CONFIG_PATH", filepath.Join(dir, "settings.enc"))

	stored := Default()
	stored.BackendURL = "http://stored:1"
	stored.DashboardURL = "http://stored-dash:1"
	stored.RedisAddr = "stored:6379"
	if err := Save(&stored, "secret"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	overlay := filepath.Join(dir, "overlay.yaml")
	if err := os.WriteFile(overlay, []byte("dashboard_url: http://overlay:2\nredis_addr: overlay:6379\n"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("NEXIATRAY_REDIS_ADDR", "env:6379")

	settings, err := Resolve("secret", overlay)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if settings.BackendURL != "http://stored:1" {
		t.Fatalf("stored value lost: %q", settings.BackendURL)
	}
	if settings.DashboardURL != "http://overlay:2" {
		t.Fatalf("overlay not applied: %q", settings.DashboardURL)
	}
	if settings.RedisAddr != "env:6379" {
		t.Fatalf("env not applied last: %q", settings.RedisAddr)
	}
}

func TestResolveWithoutPassphraseUsesDefaults(t *testing.T) {
	t.Setenv("NEXIATRAY_CONFIG_PATH", filepath.Join(t.TempDir(), "settings.enc"))
	t.Setenv("NEXIATRAY_BACKEND_URL", "")

	settings, err := Resolve("", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if settings.BackendURL != DefaultBackendURL {
		t.Fatalf("expected defaults, got %q", settings.BackendURL)
	}
}
