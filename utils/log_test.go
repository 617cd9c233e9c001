package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "scan.dcm injected", SanitizeLogMessage("scan.dcm\ninjected"))
	assert.Equal(t, "a\tb", SanitizeLogMessage("a\tb"))
	assert.Equal(t, "ab", SanitizeLogMessage("a\x00\x1bb"))
}

func TestSanitizeLogValue(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := SanitizeLogValue(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, 83)

	assert.Equal(t, "doctor@example.com", SanitizeLogValue("doctor@example.com"))
}
