package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/database"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setupAuth(t *testing.T) *Auth {
	t.Helper()

	db, err := database.Init("sqlite", filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db, testSecret)
}

func TestSignup(t *testing.T) {
	a := setupAuth(t)

	t.Run("creates account", func(t *testing.T) {
		user, err := a.Signup("alice@example.com", "correct-horse", "Alice")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)

		// The stored hash is not the plaintext password
		assert.NotEqual(t, "correct-horse", user.PasswordHash)
		assert.True(t, strings.HasPrefix(user.PasswordHash, "$2a$"))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := a.Signup("alice@example.com", "another-pass", "Alice Again")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := a.Signup("bob@example.com", "short", "Bob")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})
}

func TestLogin(t *testing.T) {
	a := setupAuth(t)
	_, err := a.Signup("alice@example.com", "correct-horse", "Alice")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		token, user, err := a.Login("alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "alice@example.com", user.Email)

		claims, err := a.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := a.Login("alice@example.com", "wrong-password")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeAuth))
	})

	t.Run("unknown email yields the same error", func(t *testing.T) {
		_, _, wrongPass := a.Login("alice@example.com", "wrong-password")
		_, _, unknown := a.Login("nobody@example.com", "whatever-pass")
		assert.Equal(t, wrongPass.Error(), unknown.Error())
	})
}

func TestValidateToken(t *testing.T) {
	a := setupAuth(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := a.ValidateToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &Claims{
			UserID: 1,
			Email:  "alice@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = a.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := &Claims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-ab"))
		require.NoError(t, err)

		_, err = a.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	a := setupAuth(t)
	user, err := a.Signup("alice@example.com", "correct-horse", "Alice")
	require.NoError(t, err)

	token, err := a.GenerateToken(user)
	require.NoError(t, err)

	var seenUserID int
	handler := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserID(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, seenUserID)
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("spoofed identity header is stripped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-User-ID", "99999")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, seenUserID)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
