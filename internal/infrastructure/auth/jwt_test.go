package auth

import (
	"testing"
	"time"

	"github.com/erp/purchasing/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.AuthConfig{
		JWTSecret:             "test-secret-key-at-least-32-chars",
		Issuer:                "po-lifecycle",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestNewJWTService(t *testing.T) {
	svc := newTestJWTService()

	assert.Equal(t, []byte("test-secret-key-at-least-32-chars"), svc.secret)
	assert.Equal(t, "po-lifecycle", svc.issuer)
	assert.Equal(t, 15*time.Minute, svc.expiration)
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(userID, "procurement.officer")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "procurement.officer", claims.Username)
	assert.Equal(t, userID.String(), claims.Subject)

	actor, err := claims.ActorID()
	require.NoError(t, err)
	assert.Equal(t, userID, actor)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateAccessToken(uuid.New(), "late")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	token, _, err := svc.GenerateAccessToken(uuid.New(), "early")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTService(config.AuthConfig{JWTSecret: "another-secret-key-of-32-characters", Issuer: "po-lifecycle", AccessTokenExpiration: time.Minute})
	token, _, err := other.GenerateAccessToken(uuid.New(), "forged")
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "signature from another secret")
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	svc := newTestJWTService()
	other := NewJWTService(config.AuthConfig{JWTSecret: "test-secret-key-at-least-32-chars", Issuer: "crm", AccessTokenExpiration: time.Minute})

	token, _, err := other.GenerateAccessToken(uuid.New(), "crm.user")
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func signClaims(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)
	return token
}

func TestValidateAccessToken_ClaimChecks(t *testing.T) {
	svc := newTestJWTService()
	registered := jwt.RegisteredClaims{
		Issuer:    "po-lifecycle",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}

	tests := []struct {
		name   string
		claims *Claims
		want   error
	}{
		{"refresh token", &Claims{RegisteredClaims: registered, UserID: uuid.NewString(), TokenType: "refresh"}, ErrInvalidTokenType},
		{"no user", &Claims{RegisteredClaims: registered, TokenType: TokenTypeAccess}, ErrMissingUserID},
		{"user is not a uuid", &Claims{RegisteredClaims: registered, UserID: "admin", TokenType: TokenTypeAccess}, ErrInvalidClaims},
		{"nil user", &Claims{RegisteredClaims: registered, UserID: uuid.Nil.String(), TokenType: TokenTypeAccess}, ErrInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(signClaims(t, tt.claims))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "po-lifecycle", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           uuid.NewString(),
		TokenType:        TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
