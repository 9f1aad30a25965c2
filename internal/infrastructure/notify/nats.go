package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
)

// Connect dials NATS with reconnect settings suited to a long-running process.
func Connect(url, name string, logger *zap.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

// NATSPublisher publishes notifications as JSON on a subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(nc *nats.Conn, subject string, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{nc: nc, subject: subject, logger: logger.Named("nats_publisher")}
}

// Notify publishes on "<subject>.<tag>" when the notification is tagged.
func (p *NATSPublisher) Notify(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	subject := p.subject
	if n.Tag != "" {
		subject = subject + "." + n.Tag
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	p.logger.Debug("notification published", zap.String("subject", subject))
	return nil
}
