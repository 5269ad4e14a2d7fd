package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func TestIssueThenVerify_RoundTripsClaims(t *testing.T) {
	iss := NewIssuer(testSecret, 0)

	tokenStr, err := iss.Issue(map[string]interface{}{"uid": "u1", "email": "a@b.c"})
	require.NoError(t, err)

	claims, err := iss.ParseClaims(tokenStr)
	require.NoError(t, err)
	require.Equal(t, "u1", claims["uid"])
	require.Equal(t, "a@b.c", claims["email"])

	tok, err := iss.Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	var viaToken map[string]interface{}
	require.NoError(t, tok.Claims(&viaToken))
	require.Equal(t, "u1", viaToken["uid"])

	var typed struct {
		UID string `json:"uid"`
	}
	require.NoError(t, tok.Claims(&typed))
	require.Equal(t, "u1", typed.UID)
}

func TestIssue_ExpiresAfter24Hours(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := NewIssuer(testSecret, DefaultTTL)
	iss.now = func() time.Time { return fixed }

	tokenStr, err := iss.Issue(map[string]interface{}{"uid": "u1", "exp": 1})
	require.NoError(t, err)

	claims, err := iss.ParseClaims(tokenStr)
	require.NoError(t, err)
	exp, ok := ExpiresAt(claims)
	require.True(t, ok)
	require.Equal(t, fixed.Add(24*time.Hour).Unix(), exp.Unix())
}

func TestVerify_ExpiredTokenFails(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tokenStr, err := iss.Issue(map[string]interface{}{"uid": "u2"})
	require.NoError(t, err)

	_, err = NewIssuer(testSecret, time.Hour).ParseClaims(tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecretFails(t *testing.T) {
	tokenStr, err := NewIssuer("secret-one-32-bytes-xxxxxxxxxxxxxxxx", 0).Issue(map[string]interface{}{"uid": "u3"})
	require.NoError(t, err)

	_, err = NewIssuer("different-secret-xxxxxxxxxxxxxxxx", 0).Verify(context.Background(), tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	_, err := NewIssuer(testSecret, 0).ParseClaims("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"uid":"u-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."

	_, err := NewIssuer(testSecret, 0).ParseClaims(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingExpRejected(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": "u4"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewIssuer(testSecret, 0).ParseClaims(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedPayload(t *testing.T) {
	iss := NewIssuer(testSecret, 0)
	tokenStr, err := iss.Issue(map[string]interface{}{"uid": "user-t"})
	require.NoError(t, err)

	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payloadBytes), "user-t", "attacker", 1)))

	_, err = iss.ParseClaims(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiresAt_Missing(t *testing.T) {
	_, ok := ExpiresAt(map[string]interface{}{"uid": "x"})
	require.False(t, ok)
}
