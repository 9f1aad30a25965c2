package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/pkg/httpcontext"
	settingsUC "github.com/fastygo/auraplan/usecase/settings"
)

type SettingsHandler struct {
	baseHandler
	uc *settingsUC.UseCase
}

func NewSettingsHandler(uc *settingsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{baseHandler: newBaseHandler(adapter, logger), uc: uc}
}

// @Summary Get settings
// @Tags settings
// @Router /api/v1/settings [get]
func (h *SettingsHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.respondSuccess(ctx, http.StatusOK, h.uc.Get(stdCtx))
}

// @Summary Replace settings
// @Tags settings
// @Router /api/v1/settings [put]
func (h *SettingsHandler) Update(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// Fields missing from the body keep their current values.
	settings := h.uc.Get(stdCtx)
	if !h.decode(ctx, &settings) {
		return
	}
	updated, err := h.uc.Update(stdCtx, settings)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Reset settings to defaults
// @Tags settings
// @Router /api/v1/settings [delete]
func (h *SettingsHandler) Reset(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	settings, err := h.uc.Reset(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, settings)
}
