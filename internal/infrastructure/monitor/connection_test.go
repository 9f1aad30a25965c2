package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_ReportsTransitionsOnly(t *testing.T) {
	var failing error
	mon := New(nil, 0, nil, Probe{Name: "remote", Check: func(context.Context) error { return failing }})

	var events []bool
	mon.OnChange(func(online bool) { events = append(events, online) })

	mon.Refresh(context.Background())
	mon.Refresh(context.Background())
	require.Equal(t, []bool{true}, events)
	assert.True(t, mon.IsOnline())

	failing = errors.New("connection refused")
	status := mon.Refresh(context.Background())
	assert.False(t, status.Online)
	assert.False(t, status.Services["remote"])

	failing = nil
	mon.Refresh(context.Background())
	assert.Equal(t, []bool{true, false, true}, events)
}

func TestRefresh_NoProbesIsOnline(t *testing.T) {
	mon := New(nil, 0, nil)
	assert.True(t, mon.Refresh(context.Background()).Online)
}
