package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

const RoleService = "service"

type requestDataKey struct{}

// RequestData identifies the authenticated caller of a request.
type RequestData struct {
	UserID uuid.UUID
	Role   string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// AsService marks ctx as acting on behalf of the service itself (jobs, tools).
func AsService(ctx context.Context) context.Context {
	return WithRequestData(Default(ctx), &RequestData{Role: RoleService})
}

// CanActFor reports whether the caller may read or mutate data owned by userID.
func (rd *RequestData) CanActFor(userID uuid.UUID) bool {
	if rd == nil || userID == uuid.Nil {
		return false
	}
	return rd.Role == RoleService || rd.UserID == userID
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
