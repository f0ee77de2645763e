package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := date("2025-03-01")
	revokedAt := date("2025-02-01")

	tests := []struct {
		name  string
		token RefreshToken
		want  bool
	}{
		{
			name:  "live session",
			token: RefreshToken{ExpiresAt: date("2025-04-01")},
			want:  true,
		},
		{
			name:  "expiry instant still counts",
			token: RefreshToken{ExpiresAt: now},
			want:  true,
		},
		{
			name:  "expired",
			token: RefreshToken{ExpiresAt: date("2025-02-01")},
			want:  false,
		},
		{
			name:  "revoked",
			token: RefreshToken{ExpiresAt: date("2025-04-01"), Revoked: true, RevokedAt: &revokedAt},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.Usable(now))
		})
	}
}
