package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLog logs one line per request, at warn for 4xx and error for 5xx.
func AccessLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)

			status := ctx.Response.StatusCode()
			level := zapcore.InfoLevel
			switch {
			case status >= 500:
				level = zapcore.ErrorLevel
			case status >= 400:
				level = zapcore.WarnLevel
			}
			if ce := logger.Check(level, "request completed"); ce != nil {
				ce.Write(
					zap.ByteString("method", ctx.Method()),
					zap.ByteString("path", ctx.Path()),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.Int("bytes", len(ctx.Response.Body())),
					zap.ByteString("request_id", ctx.Response.Header.Peek("X-Request-ID")),
				)
			}
		}
	}
}
