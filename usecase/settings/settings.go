package settings

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
	"github.com/fastygo/auraplan/usecase"
)

type UseCase struct {
	store  *localstore.Store
	logger *zap.Logger
}

func New(store *localstore.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{store: store, logger: logger.Named("settings")}
}

// Get returns the persisted settings, falling back to the defaults.
func (uc *UseCase) Get(ctx context.Context) domain.Settings {
	return uc.store.LoadSettings()
}

func (uc *UseCase) Update(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if err := usecase.Validate(&settings); err != nil {
		return domain.Settings{}, err
	}
	if err := uc.store.SaveSettings(settings); err != nil {
		return domain.Settings{}, err
	}
	uc.logger.Debug("settings updated", zap.String("theme", settings.Theme), zap.Bool("notifications", settings.Notifications.Enabled))
	return settings, nil
}

// Reset restores the defaults.
func (uc *UseCase) Reset(ctx context.Context) (domain.Settings, error) {
	return uc.Update(ctx, domain.DefaultSettings())
}

// NotificationsAllowed backs the notification permission gate.
func (uc *UseCase) NotificationsAllowed() bool {
	return uc.store.LoadSettings().Notifications.Enabled
}
