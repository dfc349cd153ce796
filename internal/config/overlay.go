package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadFile overlays a plain-text YAML or TOML settings file onto settings.
// Keys absent from the file leave the current values untouched.
func LoadFile(path string, settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("nil settings")
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the local operator.
	if err != nil {
		return fmt.Errorf("read overlay: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, settings); err != nil {
			return fmt.Errorf("parse yaml overlay: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, settings); err != nil {
			return fmt.Errorf("parse toml overlay: %w", err)
		}
	default:
		return fmt.Errorf("unsupported overlay format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
	return nil
}

// ApplyEnv overrides settings from NEXIATRAY_* variables looked up through getenv.
func ApplyEnv(settings *Settings, getenv func(string) string) {
	if settings == nil || getenv == nil {
		return
	}

	if v := strings.TrimSpace(getenv("NEXIATRAY_BACKEND_URL")); v != "" {
		settings.BackendURL = v
	}
	if v := strings.TrimSpace(getenv("NEXIATRAY_BACKEND_TOKEN")); v != "" {
		settings.BackendToken = v
	}
	if v := parseInt(getenv("NEXIATRAY_TIMEOUT_SEC")); v > 0 {
		settings.RequestTimeoutSec = v
	}
	if v := strings.TrimSpace(getenv("NEXIATRAY_ALLOWED_ENDPOINTS")); v != "" {
		settings.AllowedEndpoints = ParseList(v)
	}
	if v := parseInt(getenv("NEXIATRAY_MAX_AUDIO_BYTES")); v > 0 {
		settings.MaxAudioBytes = int64(v)
	}
	settings.IPCAddr = firstNonEmpty(getenv("NEXIATRAY_SERVICE_ADDR"), settings.IPCAddr)
	settings.HTTPAddr = firstNonEmpty(getenv("NEXIATRAY_HTTP_ADDR"), settings.HTTPAddr)
	settings.DashboardURL = firstNonEmpty(getenv("NEXIATRAY_DASHBOARD_URL"), settings.DashboardURL)
	settings.RedisAddr = firstNonEmpty(getenv("NEXIATRAY_REDIS_ADDR"), settings.RedisAddr)
}

// ParseList splits a comma-separated value, dropping blanks.
func ParseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func parseInt(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	out, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0
	}
	return out
}
