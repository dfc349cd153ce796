package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/nexiatray/internal/ipc"
	"github.com/example/nexiatray/internal/protocol"
)

// ErrUnauthorized is returned when the service rejects the client token.
var ErrUnauthorized = errors.New("unauthorized")

// RemoteError carries a failure message reported by the service.
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Client issues one-shot requests against a running service.
type Client struct {
	endpoint ipc.Endpoint
	token    string
}

// NewClient returns a client for endpoint authenticating with token.
func NewClient(endpoint ipc.Endpoint, token string) *Client {
	return &Client{endpoint: endpoint, token: token}
}

// Call sends a single request and waits for the reply.
func (c *Client) Call(ctx context.Context, command string, payload []byte, args map[string]any) (string, error) {
	conn, err := c.endpoint.DialContext(ctx)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", c.endpoint.String(), err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(connectionTimeout))
	}

	req := protocol.Request{Token: c.token, Command: command, Payload: payload, Args: args}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		if resp.Error == ErrUnauthorized.Error() {
			return "", ErrUnauthorized
		}
		return "", &RemoteError{Command: command, Message: resp.Error}
	}
	return resp.Result, nil
}
