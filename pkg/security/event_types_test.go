package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventType(t *testing.T) {
	for _, eventType := range ValidEventTypes() {
		got, err := ParseEventType(eventType)
		assert.NoError(t, err)
		assert.Equal(t, eventType, got)
	}

	_, err := ParseEventType("account_locked")
	assert.Error(t, err)
	assert.False(t, IsValidEventType(""))
}

func TestParseSeverity(t *testing.T) {
	assert.True(t, IsValidSeverity(SeverityCritical))
	assert.False(t, IsValidSeverity("severe"))

	_, err := ParseSeverity("LOW")
	assert.Error(t, err)
}
