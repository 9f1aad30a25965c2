package usecase

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/fastygo/auraplan/domain"
)

// IdentityProvider abstracts the auth use case so entity use cases can stamp owners.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)
}

// ReminderPlanner is the part of the reminder scheduler the task use case drives.
type ReminderPlanner interface {
	Schedule(ctx context.Context, task domain.Task, minutesBefore int) error
	Reschedule(ctx context.Context, task domain.Task, minutesBefore int) error
	Cancel(ctx context.Context, taskID string) error
}

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks struct tags and wraps failures as INVALID domain errors.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	if err := validate.Struct(v); err != nil {
		return domain.ValidationError(err)
	}
	return nil
}

// OwnerID returns the current identity's id, or "" when nobody is signed in.
func OwnerID(ctx context.Context, identity IdentityProvider) string {
	if identity == nil {
		return ""
	}
	current, err := identity.CurrentIdentity(ctx)
	if err != nil || current == nil {
		return ""
	}
	return current.ID
}
