package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/domain"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// Claims are carried by tokens issued at sign-in.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Anonymous bool   `json:"anonymous,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token that expires with the session.
func IssueToken(secret, issuer string, session *domain.Session) (string, error) {
	if secret == "" {
		return "", nil
	}
	claims := Claims{
		UserID:    session.UserID,
		SessionID: session.ID,
		Anonymous: session.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTAuth verifies bearer tokens and forwards the user and session ids as headers.
// Without a secret the API runs unauthenticated, which suits a single-user daemon.
func JWTAuth(secret, issuer string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if secret == "" {
		logger.Warn("JWT_SECRET is empty, API requests are not authenticated")
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Never trust identity headers supplied by the client.
			ctx.Request.Header.Del(HeaderUserID)
			ctx.Request.Header.Del(HeaderSessionID)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims, err := parseToken(tokenString, secret, issuer)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			ctx.Request.Header.Set(HeaderUserID, claims.UserID)
			ctx.Request.Header.Set(HeaderSessionID, claims.SessionID)
			next(ctx)
		}
	}
}

func parseToken(tokenString, secret, issuer string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return nil, errors.New("unexpected issuer")
	}
	if claims.UserID == "" {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusUnauthorized)
	ctx.SetBodyString(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil).String())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
