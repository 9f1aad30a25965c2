package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/pkg/httpcontext"
	analyticsUC "github.com/fastygo/auraplan/usecase/analytics"
)

const defaultProgressDays = 7

type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{baseHandler: newBaseHandler(adapter, logger), uc: uc}
}

// @Summary Analytics dashboard
// @Tags analytics
// @Param days query int false "progress window in days"
// @Router /api/v1/analytics [get]
func (h *AnalyticsHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	days := parseInt(string(ctx.QueryArgs().Peek("days")), defaultProgressDays)
	if days <= 0 || days > 366 {
		h.badRequest(ctx, "days must be between 1 and 366")
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		resp transport.DashboardResponse
		err  error
	)
	if resp.Stats, err = h.uc.Stats(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	if resp.Goals, err = h.uc.GoalOverview(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	if resp.Progress, err = h.uc.ProgressData(stdCtx, days); err != nil {
		h.respondError(ctx, err)
		return
	}
	if resp.Streak, err = h.uc.Streak(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	if resp.AverageDaily, err = h.uc.AverageDaily(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	resp.Achievements = h.uc.Achievements(stdCtx)
	h.respondSuccess(ctx, http.StatusOK, resp)
}

// @Summary Unlock newly earned achievements
// @Tags analytics
// @Router /api/v1/achievements/check [post]
func (h *AnalyticsHandler) CheckAchievements(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	unlocked, err := h.uc.CheckAchievements(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, unlocked, len(unlocked))
}

// @Summary Download all local data
// @Tags analytics
// @Produce json
// @Router /api/v1/export [get]
func (h *AnalyticsHandler) Export(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var buf bytes.Buffer
	snapshot, err := h.uc.WriteExport(stdCtx, &buf)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", analyticsUC.ExportFileName(snapshot.ExportedAt)))
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(buf.Bytes())
}

// @Summary Restore an export document
// @Tags analytics
// @Router /api/v1/import [post]
func (h *AnalyticsHandler) Import(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.ReadImport(stdCtx, bytes.NewReader(ctx.PostBody()))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
