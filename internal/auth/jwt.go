package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/threatlens/dashboard-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTValidator verifies HS256 session tokens issued by the upstream
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator returns nil when no secret is configured
func NewJWTValidator(secret string) *JWTValidator {
	if secret == "" {
		return nil
	}
	return &JWTValidator{secret: []byte(secret)}
}

// ValidateToken verifies the signature and expiry and extracts the user
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	user := &UserContext{
		ID:    extractString(claims, "id", "userId", "sub"),
		Email: extractString(claims, "email"),
		Role:  domain.Role(strings.ToLower(extractString(claims, "role"))),
		Plan:  domain.Plan(strings.ToLower(extractString(claims, "plan"))),
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	return user, nil
}

// IssueToken signs a session token for user. Used by tooling and tests.
func (v *JWTValidator) IssueToken(user domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"plan":  string(user.Plan),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// extractString returns the first non-empty string claim among keys
func extractString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch val := claims[key].(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return fmt.Sprintf("%.0f", val)
		}
	}
	return ""
}
