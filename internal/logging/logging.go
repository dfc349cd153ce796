package logging

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// maxLoggedPayload caps how much of a request or response body ends up in the log.
const maxLoggedPayload = 2048

var debugEnabled atomic.Bool

// Setup routes the standard logger to w. Logging goes to stderr so stdout
// stays clean for the MCP stdio transport and CLI output.
func Setup(w io.Writer) {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("nexiatray: ")
	if w != nil {
		log.SetOutput(w)
	}
}

// EnableDebug turns on verbose debug logging.
func EnableDebug() {
	debugEnabled.Store(true)
	log.Printf("[DEBUG] debug logging enabled")
}

// EnableDebugFromEnv enables debug logging when the value parses as true.
func EnableDebugFromEnv(value string) bool {
	on, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil || !on {
		return false
	}
	EnableDebug()
	return true
}

// DebugEnabled reports whether debug logging is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf emits a formatted debug log message when debugging is enabled.
func Debugf(format string, args ...interface{}) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// LogCommand records the outcome of a relay command. Failures are always
// logged; successes only in debug mode.
func LogCommand(source, name string, elapsed time.Duration, err error) {
	if err != nil {
		log.Printf("%s: command %s failed after %s: %v", source, name, elapsed.Round(time.Millisecond), err)
		return
	}
	Debugf("%s: command %s ok in %s", source, name, elapsed.Round(time.Millisecond))
}

// LogHTTPRequest emits details of an outbound HTTP request when debugging is
// enabled. Sensitive headers and query values are masked.
func LogHTTPRequest(req *http.Request, body []byte) {
	if !DebugEnabled() || req == nil {
		return
	}

	target := sanitizeURL(req.URL)
	if target == "" {
		target = "<unknown>"
	}
	log.Printf("[DEBUG] HTTP request %s %s", req.Method, target)
	if len(req.Header) > 0 {
		log.Printf("[DEBUG] --> request headers: %s", formatHeaders(req.Header))
	}
	if len(body) > 0 {
		log.Printf("[DEBUG] --> request payload %s", describePayload(body))
	}
}

// LogHTTPResponse emits details of an inbound HTTP response when debugging
// is enabled.
func LogHTTPResponse(resp *http.Response, body []byte) {
	if !DebugEnabled() || resp == nil {
		return
	}

	target := "<unknown>"
	if resp.Request != nil {
		target = sanitizeURL(resp.Request.URL)
	}
	log.Printf("[DEBUG] HTTP response %s for %s", resp.Status, target)
	if len(resp.Header) > 0 {
		log.Printf("[DEBUG] <-- response headers: %s", formatHeaders(resp.Header))
	}
	if len(body) > 0 {
		log.Printf("[DEBUG] <-- response payload %s", describePayload(body))
	}
}

func formatHeaders(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		values := make([]string, len(headers[name]))
		for idx, value := range headers[name] {
			values[idx] = sanitizeSensitiveValue(name, value)
		}
		parts = append(parts, fmt.Sprintf("%s: [%s]", name, strings.Join(values, ", ")))
	}
	return strings.Join(parts, ", ")
}

func describePayload(body []byte) string {
	size := len(body)
	suffix := ""
	if size > maxLoggedPayload {
		body = body[:maxLoggedPayload]
		suffix = "...(truncated)"
	}
	if utf8.Valid(body) {
		return fmt.Sprintf("(utf-8, %d bytes): %s%s", size, string(body), suffix)
	}
	return fmt.Sprintf("(base64, %d bytes): %s%s", size, base64.StdEncoding.EncodeToString(body), suffix)
}

func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clone := *u
	if clone.RawQuery != "" {
		query := clone.Query()
		masked := false
		for key, values := range query {
			if !isSensitiveKey(key) {
				continue
			}
			masked = true
			for idx, value := range values {
				query[key][idx] = MaskIdentifier(value)
			}
		}
		if masked {
			clone.RawQuery = query.Encode()
		}
	}

	if clone.User != nil {
		if password, ok := clone.User.Password(); ok {
			clone.User = url.UserPassword(clone.User.Username(), MaskIdentifier(password))
		}
	}
	return clone.String()
}

func isSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"api-key", "apikey", "authorization", "secret", "token", "password"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sanitizeSensitiveValue(name, value string) string {
	if value == "" || !isSensitiveKey(name) {
		return value
	}
	if scheme, cred, ok := strings.Cut(value, " "); ok && strings.EqualFold(scheme, "bearer") {
		return scheme + " " + MaskIdentifier(cred)
	}
	return MaskIdentifier(value)
}

// MaskIdentifier obscures sensitive identifiers leaving only the last four characters visible.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
