// Package notify delivers user-facing notifications over pluggable channels.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
)

// Notifier delivers a notification. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n domain.Notification) error

func (f Func) Notify(ctx context.Context, n domain.Notification) error {
	return f(ctx, n)
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) error {
	var result error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			result = errors.Join(result, err)
		}
	}
	return result
}

// Log writes notifications to the structured log.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("notify")}
}

func (l *Log) Notify(_ context.Context, n domain.Notification) error {
	l.logger.Info("notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("tag", n.Tag))
	return nil
}

// Gate drops notifications while permission is not granted.
type Gate struct {
	next    Notifier
	allowed func() bool
	logger  *zap.Logger
}

// NewGate wraps next with a permission check evaluated on every call.
func NewGate(next Notifier, allowed func() bool, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{next: next, allowed: allowed, logger: logger}
}

func (g *Gate) Notify(ctx context.Context, n domain.Notification) error {
	if g.next == nil {
		return nil
	}
	if g.allowed != nil && !g.allowed() {
		g.logger.Debug("notification suppressed (permission denied)", zap.String("tag", n.Tag))
		return nil
	}
	return g.next.Notify(ctx, n)
}
