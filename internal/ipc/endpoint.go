package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// DefaultAddress is the loopback address used when nothing else is configured.
const DefaultAddress = "127.0.0.1:47864"

// Endpoint describes where the relay service listens for local clients.
type Endpoint struct {
	Network string
	Address string
}

// DefaultEndpoint resolves the listening endpoint using environment overrides.
func DefaultEndpoint() Endpoint {
	return ResolveEndpoint("")
}

// ResolveEndpoint prefers NEXIATRAY_SERVICE_ADDR, then configured, then the
// built-in loopback address.
func ResolveEndpoint(configured string) Endpoint {
	if addr := strings.TrimSpace(os.Getenv("NEXIATRAY_SERVICE_ADDR")); addr != "" {
		return Endpoint{Network: "tcp", Address: addr}
	}
	if addr := strings.TrimSpace(configured); addr != "" {
		return Endpoint{Network: "tcp", Address: addr}
	}
	return Endpoint{Network: "tcp", Address: DefaultAddress}
}

// Listen binds to the configured endpoint.
func (e Endpoint) Listen() (net.Listener, error) {
	return net.Listen(e.Network, e.Address)
}

// DialContext establishes a client connection with sensible timeouts.
func (e Endpoint) DialContext(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{Timeout: 5 * time.Second}
	return d.DialContext(ctx, e.Network, e.Address)
}

// String provides a readable representation for logs.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s://%s", e.Network, e.Address)
}
