package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/pkg/httpcontext"
)

// SyncService runs sync passes on demand.
type SyncService interface {
	Sync(ctx context.Context, trigger domain.SyncTrigger) (domain.SyncResult, error)
	InProgress() bool
}

// SyncStatusSource exposes the persisted sync status and connectivity.
type SyncStatusSource interface {
	SyncStatus() domain.SyncStatus
}

type SyncHandler struct {
	baseHandler
	sync   SyncService
	status SyncStatusSource
	online func() bool
}

func NewSyncHandler(sync SyncService, status SyncStatusSource, online func() bool, adapter *httpcontext.Adapter, logger *zap.Logger) *SyncHandler {
	if online == nil {
		online = func() bool { return true }
	}
	return &SyncHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sync:        sync,
		status:      status,
		online:      online,
	}
}

// @Summary Run a sync pass now
// @Tags sync
// @Router /api/v1/sync [post]
func (h *SyncHandler) Run(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.sync.Sync(stdCtx, domain.TriggerManual)
	if err != nil {
		// In-progress maps to 409 and carries the skip reason in meta.
		status, code := mapError(err)
		h.respondJSON(ctx, status, transport.NewError(code, err.Error(), result))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Sync status
// @Tags sync
// @Router /api/v1/sync/status [get]
func (h *SyncHandler) Status(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, transport.SyncStatusResponse{
		SyncStatus: h.status.SyncStatus(),
		InProgress: h.sync.InProgress(),
		Online:     h.online(),
	})
}
