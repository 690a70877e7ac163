package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "k1", want: []string{"k1"}},
		{name: "trims and drops blanks", in: " k1, ,k2 ,", want: []string{"k1", "k2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestLoad_GeminiKeysFallBackToSingleKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "")
	t.Setenv("GEMINI_API_KEY", "only-key")

	cfg := Load()
	assert.Equal(t, []string{"only-key"}, cfg.GeminiAPIKeys)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("GEMINI_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT", "abc")
	t.Setenv("SECURE_COOKIES", "false")
	t.Setenv("OWNER_USERNAME", "  Owner@Example.com ")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 20*time.Second, cfg.GeminiTimeout)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, "owner@example.com", cfg.OwnerUsername)
}
