package httpcontext

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/auraplan/pkg/logger"
)

func TestAttach(t *testing.T) {
	req := &fasthttp.RequestCtx{}
	req.Request.Header.Set("X-Request-ID", "req-42")
	req.Request.Header.Set("X-User-ID", "user-1")
	req.Request.Header.Set("X-Session-ID", "sess-9")
	req.Request.Header.SetUserAgent("planctl/1.0")

	ctx, cancel := NewAdapter(time.Second).Attach(req)
	defer cancel()

	assert.Equal(t, "req-42", appLogger.RequestID(ctx))
	assert.Equal(t, "req-42", string(req.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "user-1", UserID(ctx))
	assert.Equal(t, "sess-9", SessionID(ctx))
	assert.Equal(t, "planctl/1.0", ctx.Value(KeyUserAgent))
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestAttach_GeneratesRequestID(t *testing.T) {
	ctx, cancel := NewAdapter(0).Attach(&fasthttp.RequestCtx{})
	defer cancel()
	assert.NotEmpty(t, appLogger.RequestID(ctx))
	assert.Empty(t, UserID(ctx))
}

func TestAttach_ReplacesOversizedRequestID(t *testing.T) {
	req := &fasthttp.RequestCtx{}
	req.Request.Header.Set("X-Request-ID", strings.Repeat("x", 200))

	ctx, cancel := NewAdapter(time.Second).Attach(req)
	defer cancel()
	assert.Len(t, appLogger.RequestID(ctx), 36)
}
