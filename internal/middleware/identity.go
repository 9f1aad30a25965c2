package middleware

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/domain"
)

// IdentitySource yields the identity the local store currently belongs to.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)
}

// IdentityGuard rejects authenticated requests whose user is not the one the
// local data belongs to. Requests without a user header pass through.
func IdentityGuard(source IdentitySource) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			userID := string(ctx.Request.Header.Peek(HeaderUserID))
			if userID == "" {
				next(ctx)
				return
			}
			identity, err := source.CurrentIdentity(ctx)
			if err != nil || identity == nil || identity.ID != userID {
				ctx.Response.Header.SetContentType("application/json")
				ctx.SetStatusCode(http.StatusForbidden)
				ctx.SetBodyString(transport.NewError(string(domain.ErrCodeForbidden), "token does not match the signed-in identity", nil).String())
				return
			}
			next(ctx)
		}
	}
}
