package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/auraplan/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyUserID     Key = "user_id"
	KeySessionID  Key = "session_id"
)

// maxRequestIDLen bounds client supplied request ids before they reach the logs.
const maxRequestIDLen = 64

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach creates a context with the adapter timeout carrying the request id,
// the caller's address and agent, and the authenticated user id when present.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if userID := string(ctx.Request.Header.Peek("X-User-ID")); userID != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserID, userID)
	}
	if sessionID := string(ctx.Request.Header.Peek("X-Session-ID")); sessionID != "" {
		stdCtx = context.WithValue(stdCtx, KeySessionID, sessionID)
	}
	return stdCtx, cancel
}

// UserID returns the authenticated user id attached by Attach.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(KeyUserID).(string); ok {
		return v
	}
	return ""
}

// SessionID returns the session the request's token was issued for.
func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(KeySessionID).(string); ok {
		return v
	}
	return ""
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if header != "" && len(header) <= maxRequestIDLen {
		return header
	}
	return uuid.NewString()
}
