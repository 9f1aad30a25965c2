package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
)

func newUseCase(t *testing.T) *UseCase {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, nil)
}

func TestSettings_DefaultsUpdateReset(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	assert.Equal(t, domain.DefaultSettings(), uc.Get(ctx))
	assert.True(t, uc.NotificationsAllowed())

	next := domain.DefaultSettings()
	next.Theme = "dark"
	next.Notifications.Enabled = false
	_, err := uc.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "dark", uc.Get(ctx).Theme)
	assert.False(t, uc.NotificationsAllowed())

	_, err = uc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), uc.Get(ctx))
}

func TestSettings_RejectsInvalid(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	bad := domain.DefaultSettings()
	bad.Theme = "neon"
	_, err := uc.Update(ctx, bad)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	bad = domain.DefaultSettings()
	bad.Calendar.WorkingHours = domain.WorkingHours{Start: 18, End: 9}
	_, err = uc.Update(ctx, bad)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	assert.Equal(t, "light", uc.Get(ctx).Theme)
}
