package config

import (
	"os"
	"strings"
)

// CompiledSecret holds the embedded NEXIATRAY_SECRET provided at build time via
// -ldflags. When empty, the NEXIATRAY_SECRET environment variable is used.
var CompiledSecret string

// ResolveSecret returns the passphrase protecting the settings file.
func ResolveSecret() string {
	if compiled := strings.TrimSpace(CompiledSecret); compiled != "" {
		return compiled
	}
	return strings.TrimSpace(os.Getenv("NEXIATRAY_SECRET"))
}
