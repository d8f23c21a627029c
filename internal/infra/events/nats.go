package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yanqian/surgecast/internal/domain/alert"
)

// NATSConfig holds connection settings for the alert publisher.
type NATSConfig struct {
	URL           string
	Name          string
	SubjectPrefix string
	ReconnectWait time.Duration
	MaxReconnects int
	Timeout       time.Duration
}

// NATSPublisher publishes alert events as JSON on <prefix>.<kind>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	logger = logger.With("component", "events.nats")
	opts := []nats.Option{
		nats.Name(firstNonEmpty(cfg.Name, "surgecast")),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{
		conn:   conn,
		prefix: firstNonEmpty(strings.TrimSuffix(cfg.SubjectPrefix, "."), "surgecast.alerts"),
		logger: logger,
	}, nil
}

// Notify publishes event.
func (p *NATSPublisher) Notify(_ context.Context, event alert.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.conn.Publish(Subject(p.prefix, event.Kind), payload)
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
		p.conn.Close()
	}
}

// Subject builds the subject an event of kind is published on.
func Subject(prefix string, kind alert.Kind) string {
	return prefix + "." + string(kind)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ alert.Notifier = (*NATSPublisher)(nil)
