package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())

	cfg = &Config{ServerHost: "127.0.0.1", ServerPort: 9000}
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
}

func TestConfig_BaseURL(t *testing.T) {
	cfg := &Config{ServerHost: "0.0.0.0", ServerPort: 8080}
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())

	cfg.ServerDomain = "https://portal.example.com/"
	assert.Equal(t, "https://portal.example.com", cfg.BaseURL())
}

func TestConfig_AllowedOrigins(t *testing.T) {
	cfg := &Config{ServerHost: "localhost", ServerPort: 8080}
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins())

	cfg.CORSAllowOrigins = "https://a.example.com, https://b.example.com,"
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
}

func TestConfig_UploadMaxBytes(t *testing.T) {
	assert.Equal(t, int64(100<<20), (&Config{}).UploadMaxBytes())
	assert.Equal(t, int64(10<<20), (&Config{UploadMaxSizeMB: 10}).UploadMaxBytes())
}
