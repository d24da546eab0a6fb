package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	assert.True(t, strings.HasPrefix(id, "req_"))
	assert.NotEqual(t, id, NewRequestID())
}

func TestSubJobID_RoundTrip(t *testing.T) {
	requestID := NewRequestID()
	subJobID := SubJobID(requestID, "ko")

	assert.Equal(t, requestID+":ko", subJobID)
	assert.Equal(t, requestID, RequestIDOf(subJobID))
}

func TestRequestIDOf_NoSeparator(t *testing.T) {
	assert.Equal(t, "plain", RequestIDOf("plain"))
}
