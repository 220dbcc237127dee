package common

import (
	"github.com/google/uuid"
)

// NewMessageID generates a unique chat entry ID with the "msg_" prefix
// Format: msg_<uuid>
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}
