package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData carries the verified caller identity. It is attached by the
// auth middleware; everything below the HTTP layer treats it as already
// authenticated.
type RequestData struct {
	UserID     uuid.UUID
	UserName   string
	PersonaTag string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, ok := ctx.Value(requestDataKey{}).(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
