package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/database"
)

const (
	// TokenTTL is how long issued tokens stay valid
	TokenTTL = 24 * time.Hour

	minPasswordLength = 8
)

type Auth struct {
	db        *database.DB
	jwtSecret []byte
}

// Claims carries the authenticated user inside the JWT.
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func New(db *database.DB, jwtSecret string) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}
}

// Signup creates a new account with a bcrypt-hashed password.
func (a *Auth) Signup(email, password, fullName string) (*database.User, error) {
	if len(password) < minPasswordLength {
		return nil, errors.ValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	existing, err := a.db.GetUserByEmail(email)
	if err != nil {
		return nil, errors.InternalError("failed to look up user", err)
	}
	if existing != nil {
		return nil, errors.ConflictError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalError("failed to hash password", err)
	}

	user := &database.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	}
	if err := a.db.CreateUser(user); err != nil {
		return nil, errors.InternalError("failed to create user", err)
	}

	return user, nil
}

// Login verifies the credentials and returns a signed token. The same error
// is returned for unknown emails and wrong passwords so the endpoint does
// not leak which accounts exist.
func (a *Auth) Login(email, password string) (string, *database.User, error) {
	user, err := a.db.GetUserByEmail(email)
	if err != nil {
		return "", nil, errors.InternalError("failed to look up user", err)
	}
	if user == nil {
		return "", nil, errors.AuthError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.AuthError("invalid email or password")
	}

	token, err := a.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// GenerateToken issues a signed JWT for the user.
func (a *Auth) GenerateToken(user *database.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", errors.InternalError("failed to sign token", err)
	}

	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.AuthError("invalid or expired token")
	}
	if !token.Valid {
		return nil, errors.AuthError("invalid or expired token")
	}

	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token and propagates
// the authenticated user to downstream handlers via request headers.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never trust identity headers from the client
		r.Header.Del("X-User-ID")
		r.Header.Del("X-User-Email")

		tokenString := bearerToken(r)
		if tokenString == "" {
			unauthorized(w)
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			unauthorized(w)
			return
		}

		r.Header.Set("X-User-ID", strconv.Itoa(claims.UserID))
		r.Header.Set("X-User-Email", claims.Email)

		next.ServeHTTP(w, r)
	})
}

// UserID returns the authenticated user id set by RequireAuth, or 0 when
// the request is unauthenticated.
func UserID(r *http.Request) int {
	id, err := strconv.Atoi(r.Header.Get("X-User-ID"))
	if err != nil {
		return 0
	}
	return id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	// Browser clients send the token as a cookie
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}

	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "Authentication required"}`))
}
