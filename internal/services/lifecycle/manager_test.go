package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_RunsHooksInReverseAndJoinsErrors(t *testing.T) {
	m := New(0, nil)
	var order []string
	boom := errors.New("boom")

	require.NoError(t, m.Start("store", nil, func(context.Context) error {
		order = append(order, "store")
		return nil
	}))
	require.NoError(t, m.Start("scheduler", func() error { return nil }, func(context.Context) error {
		order = append(order, "scheduler")
		return boom
	}))
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})
	assert.Equal(t, []string{"store", "scheduler", "http"}, m.Names())

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"http", "scheduler", "store"}, order)

	// Hooks run once.
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestStart_FailureRegistersNothing(t *testing.T) {
	m := New(0, nil)
	stopped := false
	err := m.Start("hub", func() error { return errors.New("port in use") }, func(context.Context) error {
		stopped = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start hub")

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, stopped)
	assert.Empty(t, m.Names())
}
