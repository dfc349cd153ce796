package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const defaultMaxLen = 1000

// RedisSink keeps the newest events in a capped Redis list.
type RedisSink struct {
	client *backend.Client
	key    string
	maxLen int64
}

// Option configures a RedisSink.
type Option func(*RedisSink)

// WithMaxLen caps the number of retained events.
func WithMaxLen(n int64) Option {
	return func(s *RedisSink) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// NewRedisSink wraps an existing client.
func NewRedisSink(client *backend.Client, key string, opts ...Option) *RedisSink {
	sink := &RedisSink{client: client, key: key, maxLen: defaultMaxLen}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// DialRedis connects to addr and verifies the server answers.
func DialRedis(ctx context.Context, addr, key string, opts ...Option) (*RedisSink, error) {
	if addr == "" {
		return nil, errors.New("missing redis address")
	}
	client := backend.NewClient(&backend.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisSink(client, key, opts...), nil
}

// Write prepends the event and trims the list to the cap.
func (s *RedisSink) Write(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *RedisSink) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit events: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var ev Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Close releases the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
