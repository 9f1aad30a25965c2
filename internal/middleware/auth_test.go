package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/auraplan/domain"
)

func run(handler fasthttp.RequestHandler, authorization string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(http.MethodGet)
	ctx.Request.SetRequestURI("/api/v1/tasks")
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	ctx.Request.Header.Set(HeaderUserID, "spoofed")
	handler(ctx)
	return ctx
}

func TestJWTAuth(t *testing.T) {
	const secret = "s3cret"
	now := time.Now()
	session := &domain.Session{ID: "sess-1", UserID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	token, err := IssueToken(secret, "auraplan", session)
	require.NoError(t, err)

	var seenUser, seenSession string
	next := func(ctx *fasthttp.RequestCtx) {
		seenUser = string(ctx.Request.Header.Peek(HeaderUserID))
		seenSession = string(ctx.Request.Header.Peek(HeaderSessionID))
	}
	handler := JWTAuth(secret, "auraplan", nil)(next)

	ctx := run(handler, "Bearer "+token)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "user-1", seenUser)
	assert.Equal(t, "sess-1", seenSession)

	seenUser = ""
	ctx = run(handler, "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Empty(t, seenUser)

	other, err := IssueToken("other", "auraplan", session)
	require.NoError(t, err)
	ctx = run(handler, "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())

	expired := &domain.Session{ID: "old", UserID: "user-1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	stale, err := IssueToken(secret, "auraplan", expired)
	require.NoError(t, err)
	ctx = run(handler, "Bearer "+stale)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())

	foreign, err := IssueToken(secret, "someone-else", session)
	require.NoError(t, err)
	ctx = run(handler, "Bearer "+foreign)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestJWTAuth_DisabledWithoutSecret(t *testing.T) {
	called := false
	handler := JWTAuth("", "", nil)(func(*fasthttp.RequestCtx) { called = true })
	run(handler, "")
	assert.True(t, called)
}

type identityFunc func() *domain.Identity

func (f identityFunc) CurrentIdentity(context.Context) (*domain.Identity, error) { return f(), nil }

func TestIdentityGuard(t *testing.T) {
	current := &domain.Identity{ID: "user-1"}
	called := 0
	handler := IdentityGuard(identityFunc(func() *domain.Identity { return current }))(func(*fasthttp.RequestCtx) { called++ })

	request := func(userID string) *fasthttp.RequestCtx {
		ctx := &fasthttp.RequestCtx{}
		if userID != "" {
			ctx.Request.Header.Set(HeaderUserID, userID)
		}
		handler(ctx)
		return ctx
	}

	assert.Equal(t, http.StatusOK, request("user-1").Response.StatusCode())
	assert.Equal(t, http.StatusOK, request("").Response.StatusCode())
	assert.Equal(t, http.StatusForbidden, request("user-2").Response.StatusCode())

	current = nil
	assert.Equal(t, http.StatusForbidden, request("user-1").Response.StatusCode())
	assert.Equal(t, 2, called)
}
