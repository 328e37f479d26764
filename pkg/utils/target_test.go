package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"https", "https://example.com/path?q=1", nil},
		{"http with port", "http://localhost:8080", nil},
		{"empty", "  ", ErrMissingTarget},
		{"no scheme", "example.com", ErrInvalidTarget},
		{"ftp", "ftp://example.com", ErrInvalidTarget},
		{"no host", "https://", ErrInvalidTarget},
		{"garbage", "http://[::1", ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseTarget(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, u.Host)
		})
	}
}

func TestAbbreviate(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 60)
	assert.Equal(t, long[:50]+"...", Abbreviate(long, 50))
	assert.Equal(t, "https://x.io/...", Abbreviate("https://x.io/", 50))
	assert.Equal(t, "héllo...", Abbreviate("héllo wörld", 5))
}
