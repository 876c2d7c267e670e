package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/registrar/internal/core"
)

// WithRequestMetadata adds client IP and User-Agent to ctx for registration logs.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
