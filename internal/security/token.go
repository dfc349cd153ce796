package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"strings"

	"github.com/example/nexiatray/internal/config"
)

const serviceTokenPrefix = "nexiatray-service|"

// ResolveServiceToken returns the IPC token, deriving a stable value from the
// settings secret when no explicit token is provided.
func ResolveServiceToken(secret string) string {
	if compiled := strings.TrimSpace(config.CompiledSecret); compiled != "" {
		return DeriveServiceToken(compiled)
	}

	token := strings.TrimSpace(os.Getenv("NEXIATRAY_SERVICE_TOKEN"))
	if token != "" {
		return token
	}

	return DeriveServiceToken(secret)
}

// DeriveServiceToken hashes the provided secret into a deterministic token.
func DeriveServiceToken(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(serviceTokenPrefix + secret))
	return hex.EncodeToString(sum[:])
}

// TokensEqual compares two tokens in constant time. Empty tokens never match.
func TokensEqual(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
