package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID  contextKey = "user_id"
	ctxRoleID  contextKey = "role_id"
	ctxGuestID contextKey = "guest_id"
)

// UserIDFromContext returns the authenticated user id, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// RoleIDFromContext returns the admin role id carried by the token, if any.
func RoleIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxRoleID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

// GuestIDFromContext returns the guest session id, or uuid.Nil.
func GuestIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxGuestID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithGuestID injects the guest session identifier into the context.
func WithGuestID(ctx context.Context, guestID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestID, guestID)
}
