// Package uuid generates the time-ordered identifiers used as primary keys
// and local payment request ids.
package uuid

import (
	"strings"

	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Random source failure; a v4 id is still unique.
		return googleuuid.New().String()
	}
	return id.String()
}

// NewRequestID returns a dash-free UUIDv7 for provider request_id fields.
func NewRequestID() string {
	return strings.ReplaceAll(New(), "-", "")
}

// Parse validates and normalises a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
