package database

import (
	"encoding/json"
	"fmt"
)

// Account event types pushed to connected clients.
const (
	EventProfileUpdated  = "profile_updated"
	EventSessionsRevoked = "sessions_revoked"
	EventUserDeleted     = "user_deleted"
)

// PublishAccountEvent pushes an account-level event to every live connection
// of the user, so embedded widgets can drop credentials or refresh state the
// moment a revocation or profile change lands.
func (s *PostgresStore) PublishAccountEvent(userID string, eventType string, payload interface{}) error {
	if s.wsHub == nil {
		return nil
	}

	eventMsg := map[string]interface{}{
		"event_type": eventType,
		"payload":    payload,
	}
	eventBytes, err := json.Marshal(eventMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	s.wsHub.PublishEvent(userID, eventBytes)

	return nil
}
