package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/example/nexiatray/internal/relay"
)

// Relay command names understood by every transport.
const (
	CommandStartSession       = "startSession"
	CommandStopSession        = "stopSession"
	CommandProcessCommand     = "processCommand"
	CommandQueryBackend       = "queryBackend"
	CommandGetEcosystemStatus = "getEcosystemStatus"
)

// RelayCommands lists the relay command names in display order.
func RelayCommands() []string {
	return []string{
		CommandStartSession,
		CommandStopSession,
		CommandProcessCommand,
		CommandQueryBackend,
		CommandGetEcosystemStatus,
	}
}

// QueryArgs are the arguments of queryBackend.
type QueryArgs struct {
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	Data     string `mapstructure:"data" json:"data"`
}

type audioArgs struct {
	Audio []float64 `mapstructure:"audio"`
}

// NewRelayRegistry registers the five relay commands against r.
func NewRelayRegistry(r *relay.Relay, opts ...Option) (*Registry, error) {
	if r == nil {
		return nil, fmt.Errorf("nil relay: %w", ErrInvalidArguments)
	}
	reg := NewRegistry(opts...)

	handlers := map[string]Handler{
		CommandStartSession: func(ctx context.Context, _ Request) (string, error) {
			return r.StartSession(ctx)
		},
		CommandStopSession: func(ctx context.Context, _ Request) (string, error) {
			return r.StopSession(ctx)
		},
		CommandProcessCommand: func(ctx context.Context, req Request) (string, error) {
			audio, err := DecodeAudio(req)
			if err != nil {
				return "", err
			}
			return r.ProcessCommand(ctx, audio)
		},
		CommandQueryBackend: func(ctx context.Context, req Request) (string, error) {
			args, err := DecodeQueryArgs(req)
			if err != nil {
				return "", err
			}
			return r.QueryBackend(ctx, args.Endpoint, args.Data)
		},
		CommandGetEcosystemStatus: func(ctx context.Context, _ Request) (string, error) {
			return r.EcosystemStatus(ctx)
		},
	}
	for _, name := range RelayCommands() {
		if err := reg.Register(name, handlers[name]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DecodeQueryArgs reads endpoint and data from Args, or from a JSON object
// payload. A non-string data value is forwarded as its JSON encoding.
func DecodeQueryArgs(req Request) (QueryArgs, error) {
	var args QueryArgs

	if len(req.Args) > 0 {
		input := make(map[string]any, len(req.Args))
		for k, v := range req.Args {
			input[k] = v
		}
		if raw, ok := input["data"]; ok && raw != nil {
			if _, isString := raw.(string); !isString {
				encoded, err := json.Marshal(raw)
				if err != nil {
					return args, fmt.Errorf("encode data: %w", ErrInvalidArguments)
				}
				input["data"] = string(encoded)
			}
		}
		if err := mapstructure.Decode(input, &args); err != nil {
			return args, fmt.Errorf("%v: %w", err, ErrInvalidArguments)
		}
		return args, nil
	}

	if len(req.Payload) == 0 {
		return args, fmt.Errorf("queryBackend requires endpoint and data: %w", ErrInvalidArguments)
	}

	var wire struct {
		Endpoint string          `json:"endpoint"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(req.Payload, &wire); err != nil {
		return args, fmt.Errorf("decode queryBackend payload: %v: %w", err, ErrInvalidArguments)
	}
	args.Endpoint = wire.Endpoint
	args.Data = rawToString(wire.Data)
	return args, nil
}

func rawToString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return trimmed
}

// DecodeAudio returns the voice payload: raw Payload bytes, or Args["audio"]
// as a base64 string or an array of integers in 0..255.
func DecodeAudio(req Request) ([]byte, error) {
	raw, ok := req.Args["audio"]
	if !ok || raw == nil {
		return req.Payload, nil
	}

	if s, isString := raw.(string); isString {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("audio is not valid base64: %w", ErrInvalidArguments)
		}
		return data, nil
	}

	var args audioArgs
	if err := mapstructure.Decode(map[string]any{"audio": raw}, &args); err != nil {
		return nil, fmt.Errorf("audio: %v: %w", err, ErrInvalidArguments)
	}
	data := make([]byte, len(args.Audio))
	for i, v := range args.Audio {
		if v != math.Trunc(v) || v < 0 || v > math.MaxUint8 {
			return nil, fmt.Errorf("audio[%d] = %v is not a byte value: %w", i, v, ErrInvalidArguments)
		}
		data[i] = byte(v)
	}
	return data, nil
}
