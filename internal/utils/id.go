package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a unique identifier for connections and messages.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if the entropy source is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
