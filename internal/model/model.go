package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level (distinct from ChatRole which is chat message roles).
type UserRole string

const (
	// UserRoleInstructor can run the redesign wizard.
	UserRoleInstructor UserRole = "instructor"
	// UserRoleAdmin can also manage accounts and inspect model usage.
	UserRoleAdmin UserRole = "admin"
)

// ValidUserRole reports whether r is a known role.
func ValidUserRole(r UserRole) bool {
	return r == UserRoleInstructor || r == UserRoleAdmin
}

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type authSessionCtxKey struct{}

// ContextWithAuthSession stores the login session token in context.
// The wizard keys its in-memory state by this token.
func ContextWithAuthSession(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authSessionCtxKey{}, token)
}

// AuthSessionFromContext retrieves the login session token (empty string if not set).
func AuthSessionFromContext(ctx context.Context) string {
	t, _ := ctx.Value(authSessionCtxKey{}).(string)
	return t
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// WizardConfig holds runtime parameters set via CLI flags.
type WizardConfig struct {
	Language        string        // prompt output language and default UI language (he, en)
	DefaultStudents int           // class size prefilled on step 1
	MaxSessions     int           // upper bound on concurrently held wizard sessions
	SessionTTL      time.Duration // idle wizard sessions are dropped after this
	MaxUploadBytes  int64
	BasePath        string // URL prefix for sub-path deployments (e.g. "/reassess")
	SecureCookies   bool   // Set Secure flag on cookies (disable for local dev)
}
