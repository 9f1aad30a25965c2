package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/api/transport"
	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/pkg/httpcontext"
	goalUC "github.com/fastygo/auraplan/usecase/goal"
)

type GoalHandler struct {
	baseHandler
	uc *goalUC.UseCase
}

func NewGoalHandler(uc *goalUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List goals
// @Tags goals
// @Router /api/v1/goals [get]
func (h *GoalHandler) GetGoals(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goals, err := h.uc.ListGoals(stdCtx, string(ctx.QueryArgs().Peek("status")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, goals, len(goals))
}

// @Summary Get goal
// @Tags goals
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) GetGoal(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.GetGoal(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goal)
}

// @Summary Create goal
// @Tags goals
// @Router /api/v1/goals [post]
func (h *GoalHandler) CreateGoal(ctx *fasthttp.RequestCtx) {
	var goal domain.Goal
	if !h.decode(ctx, &goal) {
		return
	}
	goal.ID, goal.Synced = "", false
	goal.CreatedAt, goal.UpdatedAt, goal.CompletedAt = time.Time{}, time.Time{}, nil

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if userID := httpcontext.UserID(stdCtx); userID != "" {
		goal.OwnerID = userID
	}

	created, err := h.uc.CreateGoal(stdCtx, goal)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update goal
// @Tags goals
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) UpdateGoal(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var patch domain.GoalPatch
	if !h.decode(ctx, &patch) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateGoal(stdCtx, id, patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete goal
// @Tags goals
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteGoal(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Record goal progress
// @Tags goals
// @Router /api/v1/goals/{id}/progress [post]
func (h *GoalHandler) UpdateProgress(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.ProgressRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Value == nil {
		h.badRequest(ctx, "value is required")
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProgress(stdCtx, id, *req.Value, req.Notes)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Toggle goal completion
// @Tags goals
// @Router /api/v1/goals/{id}/toggle [post]
func (h *GoalHandler) ToggleCompletion(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.ToggleCompletion(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Toggle a milestone
// @Tags goals
// @Router /api/v1/goals/{id}/milestones/{milestone}/toggle [post]
func (h *GoalHandler) ToggleMilestone(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	milestone, ok := h.pathID(ctx, "milestone")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.ToggleMilestone(stdCtx, id, milestone)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}
