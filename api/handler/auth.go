package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/pkg/httpcontext"
	authUC "github.com/fastygo/auraplan/usecase/auth"
)

// TokenIssuer signs a bearer token for a session. It returns "" when tokens are disabled.
type TokenIssuer func(session *domain.Session) (string, error)

type AuthHandler struct {
	baseHandler
	uc         *authUC.UseCase
	issue      TokenIssuer
	defaultTTL time.Duration
}

func NewAuthHandler(uc *authUC.UseCase, issue TokenIssuer, adapter *httpcontext.Adapter, logger *zap.Logger, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if issue == nil {
		issue = func(*domain.Session) (string, error) { return "", nil }
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		issue:       issue,
		defaultTTL:  ttl,
	}
}

// @Summary Sign in, anonymously when user_id is empty
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.AuthLoginRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.SignIn(stdCtx, req.UserID, h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	token, err := h.issue(session)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.AuthResponse{Session: session, Token: token})
}

// @Summary Refresh an existing session
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if req.SessionID == "" {
		req.SessionID = httpcontext.SessionID(stdCtx)
	}
	if req.SessionID == "" {
		h.badRequest(ctx, "session_id is required")
		return
	}

	session, err := h.uc.RefreshSession(stdCtx, req.SessionID, h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, session)
}

// @Summary Sign out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sessionID := httpcontext.SessionID(stdCtx)
	if sessionID == "" && len(ctx.PostBody()) > 0 {
		var req transport.LogoutRequest
		if !h.decode(ctx, &req) {
			return
		}
		sessionID = req.SessionID
	}

	if err := h.uc.SignOut(stdCtx, sessionID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Current identity
// @Tags auth
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, err := h.uc.CurrentIdentity(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if identity == nil {
		h.respondError(ctx, domain.ErrNoIdentity)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, identity)
}

func (h *AuthHandler) ttlFromRequest(ttlSeconds int) time.Duration {
	if ttlSeconds <= 0 {
		return h.defaultTTL
	}
	return time.Duration(ttlSeconds) * time.Second
}
