package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/pkg/httpcontext"
)

// ReminderService is the reminder scheduler as seen by the API.
type ReminderService interface {
	Active(ctx context.Context) ([]domain.Reminder, error)
	Get(ctx context.Context, taskID string) (*domain.Reminder, error)
	Snooze(ctx context.Context, taskID string, d time.Duration) (*domain.Reminder, error)
}

type ReminderHandler struct {
	baseHandler
	reminders ReminderService
}

func NewReminderHandler(reminders ReminderService, adapter *httpcontext.Adapter, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		baseHandler: newBaseHandler(adapter, logger),
		reminders:   reminders,
	}
}

// @Summary List pending reminders
// @Tags reminders
// @Router /api/v1/reminders [get]
func (h *ReminderHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	active, err := h.reminders.Active(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, active, len(active))
}

// @Summary Get the reminder of a task
// @Tags reminders
// @Router /api/v1/tasks/{id}/reminder [get]
func (h *ReminderHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	r, err := h.reminders.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, r)
}

// @Summary Snooze a reminder
// @Tags reminders
// @Router /api/v1/tasks/{id}/reminder/snooze [post]
func (h *ReminderHandler) Snooze(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.ReminderRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}
	d := domain.DefaultSnooze
	if req.Minutes != nil {
		d = time.Duration(*req.Minutes) * time.Minute
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	r, err := h.reminders.Snooze(stdCtx, id, d)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, r)
}
