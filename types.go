package hireqa

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Clock supplies the current time so expiry logic stays testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock used outside tests.
var SystemClock Clock = ClockFunc(time.Now)

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// IdentityProvider ensures we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpirationMinutes() int
	GetIssuer() string
	GetAudience() []string
}

// Delivery is the outcome of an email dispatch attempt. Failures are data,
// never errors; the owning operation keeps going.
type Delivery struct {
	Delivered bool   `json:"delivered"`
	Detail    string `json:"detail,omitempty"`
}

// EmailDispatcher is the outbound mail collaborator.
type EmailDispatcher interface {
	SendVerificationEmail(ctx context.Context, recipient, firstName, token string) Delivery
}

// EmailDispatcherFunc adapts a function to the EmailDispatcher interface.
type EmailDispatcherFunc func(ctx context.Context, recipient, firstName, token string) Delivery

func (f EmailDispatcherFunc) SendVerificationEmail(ctx context.Context, recipient, firstName, token string) Delivery {
	if f == nil {
		return Delivery{Delivered: false, Detail: "no dispatcher configured"}
	}
	return f(ctx, recipient, firstName, token)
}

// NewDefaultLogger returns the fmt-backed logger used when nothing better
// is wired in.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] HIREQA "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] HIREQA "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] HIREQA "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] HIREQA "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
