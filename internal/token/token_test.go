package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = New("secret", 0)
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	svc, err := New("secret", time.Hour)
	require.NoError(t, err)

	raw, err := svc.Issue("u1")
	require.NoError(t, err)

	userID, err := svc.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestVerify_Expired(t *testing.T) {
	svc, err := New("secret", time.Hour)
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	raw, err := svc.Issue("u1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_Invalid(t *testing.T) {
	svc, err := New("secret", time.Hour)
	require.NoError(t, err)
	other, err := New("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("u1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"alg none", noneToken},
		{"missing user id", noUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{" 12h ", 12 * time.Hour, false},
		{"106751d", 106751 * 24 * time.Hour, false},
		{"106752d", 0, true},
		{"200000d", 0, true},
		{"0d", 0, true},
		{"xd", 0, true},
		{"-1h", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.in), func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
