package mqtt

import (
	"encoding/json"
	"time"
)

// Status values published on Topics.SystemStatus.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Reasons attached to an offline status.
const (
	reasonShutdown = "shutdown"
	reasonLost     = "unexpected_disconnect"
)

// Status is the retained payload on logq/system/status. The broker
// publishes the offline variant as the will message when a process dies.
type Status struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// statusPayload encodes a Status stamped with the current UTC time.
func statusPayload(clientID, status, reason string) []byte {
	raw, err := json.Marshal(Status{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// Only string fields; Marshal cannot fail.
		return nil
	}
	return raw
}
