package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	requestIDKey
)

// session is the authenticated user attached by SessionMiddleware.
type session struct {
	username string
	role     string
}

func sessionFrom(ctx context.Context) session {
	s, _ := ctx.Value(sessionKey).(session)
	return s
}

// UserIDFrom returns the username of the request's session, or "" when anonymous.
func UserIDFrom(r *http.Request) string {
	return sessionFrom(r.Context()).username
}

func RoleFrom(r *http.Request) string {
	return sessionFrom(r.Context()).role
}

func ContextWithUser(ctx context.Context, userID, role string) context.Context {
	return context.WithValue(ctx, sessionKey, session{username: userID, role: role})
}

// RequestIDFrom retrieves the request ID set by RequestIDMiddleware.
func RequestIDFrom(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

// RequestIDFromContext is used by outbound clients to forward the id.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
