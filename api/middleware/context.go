package middleware

import (
	"context"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

type contextKey string

const ctxSessionID contextKey = "session_id"

// SessionIDFromContext returns the shopper session the Session middleware accepted.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

const (
	ctxStaffSubject contextKey = "staff_subject"
	ctxStaffRole    contextKey = "staff_role"
)

// StaffRoleFromContext returns the role StaffAuth accepted, or "".
func StaffRoleFromContext(ctx context.Context) enums.StaffRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaffRole).(enums.StaffRole); ok {
		return v
	}
	return ""
}

func StaffSubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaffSubject).(string); ok {
		return v
	}
	return ""
}
