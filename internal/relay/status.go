package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// HealthOperational is the fixed health label reported by EcosystemStatus.
const HealthOperational = "All systems operational"

var ecosystemServices = []string{"KREACH", "OnlyOneAPI", "NEXTGEN", "KVIBE"}

// EcosystemStatus is the static, unverified summary of the named services.
type EcosystemStatus struct {
	Services  []string `json:"services"`
	Health    string   `json:"health"`
	Timestamp string   `json:"timestamp"`
}

// Services returns the fixed service labels in display order.
func Services() []string {
	out := make([]string, len(ecosystemServices))
	copy(out, ecosystemServices)
	return out
}

// Status builds a fresh status value stamped with the current UTC time.
func (r *Relay) Status() EcosystemStatus {
	return EcosystemStatus{
		Services:  Services(),
		Health:    HealthOperational,
		Timestamp: r.now().UTC().Format(time.RFC3339),
	}
}

// EcosystemStatus returns the serialized status. No service is probed.
func (r *Relay) EcosystemStatus(_ context.Context) (string, error) {
	payload, err := json.Marshal(r.Status())
	if err != nil {
		// Unreachable for a struct of strings.
		return "", fmt.Errorf("marshal status: %w", err)
	}
	return string(payload), nil
}
