package auth

import (
	"context"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// SystemUserID identifies callers authenticated with the service API key
const SystemUserID = "system"

// UserContext holds the authenticated dashboard user
type UserContext struct {
	ID    string
	Email string
	Role  domain.Role
	Plan  domain.Plan
	// System is set for x-api-key callers
	System bool
	// Cookies are the session cookies forwarded to the upstream
	Cookies []*http.Cookie
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// IsAdmin reports whether the user may use admin screens
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// User returns the public view of the authenticated user
func (u *UserContext) User() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, Role: u.Role, Plan: u.Plan}
}

func fromUser(user *domain.User) *UserContext {
	return &UserContext{ID: user.ID, Email: user.Email, Role: user.Role, Plan: user.Plan}
}

func systemUser() *UserContext {
	return &UserContext{
		ID:     SystemUserID,
		Email:  "system@dashboard.local",
		Role:   domain.RoleAdmin,
		Plan:   domain.PlanPremium,
		System: true,
	}
}
