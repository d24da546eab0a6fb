package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewRequestID generates a unique translation request ID with the "req_" prefix
// Format: req_<uuid>
func NewRequestID() string {
	return "req_" + uuid.New().String()
}

// SubJobID builds the deterministic sub-job ID for a (request, language) pair.
// Format: <requestID>:<language>
// Deterministic ids let a restarted process re-derive the key for any
// in-flight notification without a lookup table.
func SubJobID(requestID, language string) string {
	return requestID + ":" + language
}

// RequestIDOf extracts the request ID from a sub-job ID
func RequestIDOf(subJobID string) string {
	if idx := strings.LastIndex(subJobID, ":"); idx > 0 {
		return subJobID[:idx]
	}
	return subJobID
}
