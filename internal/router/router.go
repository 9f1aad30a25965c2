package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/auraplan/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Task      *apiHandler.TaskHandler
	Goal      *apiHandler.GoalHandler
	Reminder  *apiHandler.ReminderHandler
	Settings  *apiHandler.SettingsHandler
	Analytics *apiHandler.AnalyticsHandler
	Sync      *apiHandler.SyncHandler
	Health    *apiHandler.HealthHandler
}

// Middleware wraps a request handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// chain applies middlewares so the first one listed runs first.
func chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

func New(handlers Handlers, protected ...Middleware) *router.Router {
	r := router.New()
	guard := func(h fasthttp.RequestHandler) fasthttp.RequestHandler { return chain(h, protected...) }

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", guard(handlers.Auth.Logout))
	r.GET("/api/v1/auth/me", guard(handlers.Auth.Me))

	// Tasks
	r.GET("/api/v1/tasks", guard(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", guard(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", guard(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", guard(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", guard(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/toggle", guard(handlers.Task.ToggleTask))
	r.PUT("/api/v1/tasks/{id}/reminder", guard(handlers.Task.ScheduleReminder))
	r.DELETE("/api/v1/tasks/{id}/reminder", guard(handlers.Task.CancelReminder))

	// Reminders
	r.GET("/api/v1/reminders", guard(handlers.Reminder.List))
	r.GET("/api/v1/reminders/{id}", guard(handlers.Reminder.Get))
	r.POST("/api/v1/reminders/{id}/snooze", guard(handlers.Reminder.Snooze))

	// Goals
	r.GET("/api/v1/goals", guard(handlers.Goal.GetGoals))
	r.POST("/api/v1/goals", guard(handlers.Goal.CreateGoal))
	r.GET("/api/v1/goals/{id}", guard(handlers.Goal.GetGoal))
	r.PUT("/api/v1/goals/{id}", guard(handlers.Goal.UpdateGoal))
	r.DELETE("/api/v1/goals/{id}", guard(handlers.Goal.DeleteGoal))
	r.POST("/api/v1/goals/{id}/progress", guard(handlers.Goal.UpdateProgress))
	r.POST("/api/v1/goals/{id}/toggle", guard(handlers.Goal.ToggleCompletion))
	r.POST("/api/v1/goals/{id}/milestones/{milestone}/toggle", guard(handlers.Goal.ToggleMilestone))

	// Settings
	r.GET("/api/v1/settings", guard(handlers.Settings.Get))
	r.PUT("/api/v1/settings", guard(handlers.Settings.Update))
	r.DELETE("/api/v1/settings", guard(handlers.Settings.Reset))

	// Analytics and export
	r.GET("/api/v1/analytics", guard(handlers.Analytics.Dashboard))
	r.POST("/api/v1/achievements/check", guard(handlers.Analytics.CheckAchievements))
	r.GET("/api/v1/export", guard(handlers.Analytics.Export))
	r.POST("/api/v1/import", guard(handlers.Analytics.Import))

	// Sync
	r.POST("/api/v1/sync", guard(handlers.Sync.Run))
	r.GET("/api/v1/sync/status", guard(handlers.Sync.Status))

	return r
}
