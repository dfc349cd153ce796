package relay

import (
	"net/url"
	"strings"
	"unicode"
)

// EndpointPolicy decides which caller-supplied paths may be appended to the
// backend base URL. With no prefixes any well-formed path is accepted.
type EndpointPolicy struct {
	prefixes []string
}

// NewEndpointPolicy builds a policy from an allow-list of path prefixes.
func NewEndpointPolicy(allowed []string) EndpointPolicy {
	prefixes := make([]string, 0, len(allowed))
	for _, raw := range allowed {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if p != "/" {
			p = strings.TrimRight(p, "/")
		}
		prefixes = append(prefixes, p)
	}
	return EndpointPolicy{prefixes: prefixes}
}

// Restricted reports whether an allow-list is in force.
func (p EndpointPolicy) Restricted() bool {
	return len(p.prefixes) > 0
}

// Validate returns a *ValidationError when endpoint could escape the backend
// origin or falls outside the allow-list.
func (p EndpointPolicy) Validate(endpoint string) error {
	reject := func(reason string) error {
		return &ValidationError{Endpoint: endpoint, Reason: reason}
	}

	if endpoint == "" {
		return reject("endpoint is empty")
	}
	if !strings.HasPrefix(endpoint, "/") {
		return reject("endpoint must start with /")
	}
	for _, r := range endpoint {
		if r > unicode.MaxASCII || unicode.IsSpace(r) || unicode.IsControl(r) {
			return reject("endpoint contains whitespace, control or non-ASCII characters")
		}
	}
	if strings.ContainsAny(endpoint, `\@#`) {
		return reject(`endpoint contains one of \ @ #`)
	}

	path, _, _ := strings.Cut(endpoint, "?")
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return reject("endpoint has malformed percent-encoding")
	}
	if hasDotDot(path) || hasDotDot(decoded) {
		return reject("endpoint must not contain .. segments")
	}

	if !p.Restricted() {
		return nil
	}
	for _, prefix := range p.prefixes {
		if prefix == "/" || path == prefix || strings.HasPrefix(path, prefix+"/") {
			return nil
		}
	}
	return reject("endpoint is not in the allow-list")
}

func hasDotDot(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
