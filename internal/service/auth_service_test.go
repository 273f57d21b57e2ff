package service

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/journey-analytics-api/internal/models"
	appErrors "github.com/noah-isme/journey-analytics-api/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret, Issuer: "journey"})
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), &models.JWTClaims{
		UserID:           "7f3c9a52-1b2d-4e8f-9a01-23456789abcd",
		Role:             "Institutional_Admin",
		InstitutionID:    "inst-1",
		IsCourseDirector: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "journey",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "7f3c9a52-1b2d-4e8f-9a01-23456789abcd", claims.UserID)
	assert.Equal(t, models.RoleInstitutionalAdmin, claims.Role)
	assert.Equal(t, "inst-1", claims.InstitutionID)
	assert.True(t, claims.IsCourseDirector)
}

func TestAuthServiceSubjectFallbackAndDefaultRole(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret})
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), &models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-from-sub"},
	})

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-from-sub", claims.UserID)
	assert.Equal(t, models.RoleFaculty, claims.Role)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret, Issuer: "journey"})

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), &models.JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "journey"}}),
		"wrong issuer": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), &models.JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere"}}),
		"expired": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), &models.JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "journey",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}),
		"no identity": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "journey"}}),
		"garbage":     "not-a-token",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, http.StatusUnauthorized, appErr.Status)
		})
	}
}

func TestAuthServiceKeepsUnrecognisedRoles(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := NewAuthService(zap.New(core), AuthConfig{AccessTokenSecret: testSecret})

	cases := []struct {
		raw    models.UserRole
		want   models.UserRole
		logged int
	}{
		{" ADVISOR ", models.RoleAdvisor, 0},
		{"Dean", models.UserRole("dean"), 1},
	}
	for _, tc := range cases {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), &models.JWTClaims{UserID: "u1", Role: tc.raw})
		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, tc.want, claims.Role)
		assert.False(t, claims.Role.CanViewOtherKPIs())
		assert.Equal(t, tc.logged, logs.FilterMessage("token carries unrecognised role").Len(), "role %q", tc.raw)
		logs.TakeAll()
	}
}
