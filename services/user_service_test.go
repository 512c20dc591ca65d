package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrForgeAPI/internal/user"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name string
		req  user.RegisterRequest
		want error
	}{
		{
			name: "valid",
			req:  user.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "longenough"},
			want: nil,
		},
		{
			name: "missing username",
			req:  user.RegisterRequest{Email: "alice@example.com", Password: "longenough"},
			want: ErrMissingFields,
		},
		{
			name: "missing email",
			req:  user.RegisterRequest{Username: "alice", Password: "longenough"},
			want: ErrMissingFields,
		},
		{
			name: "missing password",
			req:  user.RegisterRequest{Username: "alice", Email: "alice@example.com"},
			want: ErrMissingFields,
		},
		{
			name: "bad email",
			req:  user.RegisterRequest{Username: "alice", Email: "not-an-email", Password: "longenough"},
			want: ErrInvalidEmail,
		},
		{
			name: "email with spaces",
			req:  user.RegisterRequest{Username: "alice", Email: "al ice@example.com", Password: "longenough"},
			want: ErrInvalidEmail,
		},
		{
			name: "short password",
			req:  user.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"},
			want: ErrWeakPassword,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRegistration(&tc.req)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGenerateEmailToken(t *testing.T) {
	first, err := generateEmailToken()
	require.NoError(t, err)
	second, err := generateEmailToken()
	require.NoError(t, err)

	assert.Len(t, first, 40)
	assert.NotEqual(t, first, second)
}
