package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/internal/infrastructure/monitor"
	"github.com/fastygo/auraplan/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Description The local store always serves requests, so an unreachable
// @Description remote only downgrades the status to "offline".
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	if status.Online {
		h.respondSuccess(ctx, http.StatusOK, status)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.Envelope{Status: "offline", Data: status})
}
