package generator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathGenerator_DICOMObjectKey(t *testing.T) {
	pg := NewPathGenerator()
	pg.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }
	pg.random = func(int) (string, error) { return "a1b2c3", nil }

	key, err := pg.DICOMObjectKey("Chest CT.DCM")
	require.NoError(t, err)
	assert.Equal(t, "dicom/2024/01/15/1705314600000-a1b2c3-Chest-CT.dcm", key)
}

func TestPathGenerator_DICOMObjectKey_RandomError(t *testing.T) {
	pg := NewPathGenerator()
	pg.random = func(int) (string, error) { return "", errors.New("entropy") }

	_, err := pg.DICOMObjectKey("scan.dcm")
	assert.Error(t, err)
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"scan.dcm", "scan.dcm"},
		{"../../etc/passwd.dcm", "passwd.dcm"},
		{"患者 影像.dicom", "study.dicom"},
		{"a  b--c.DCM", "a-b-c.dcm"},
		{"weird.d$m", "weird"},
		{"", "study"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}
