package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
)

// natsConn is the subset of *nats.Conn the sink uses
type natsConn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// headerCarrier lets the otel propagator read and write nats headers
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// NATSSink publishes each batch as one JSON message
type NATSSink struct {
	conn    natsConn
	subject string
	logger  logging.Logger
}

// DialNATS connects to cfg.NATS.URL
func DialNATS(cfg *config.Config, logger logging.Logger) (*NATSSink, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.NATS.Name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.NATS.URL, err)
	}
	return newNATSSink(nc, cfg.Sink.NATSSubject, logger), nil
}

func newNATSSink(conn natsConn, subject string, logger logging.Logger) *NATSSink {
	return &NATSSink{conn: conn, subject: subject, logger: logger}
}

func (s *NATSSink) Name() string { return config.SinkNATS }

// Deliver publishes the batch and flushes so a nil error means the server has it
func (s *NATSSink) Deliver(ctx context.Context, batch Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	msg := &nats.Msg{Subject: s.subject, Data: data, Header: nats.Header{}}
	msg.Header.Set("Run-Id", batch.RunID)
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s failed: %w", s.subject, err)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush after publish failed: %w", err)
	}

	s.logger.WithContext(ctx).Info("Batch published", map[string]interface{}{
		"run_id":  batch.RunID,
		"subject": s.subject,
		"jobs":    len(batch.Jobs),
	})
	return nil
}

func (s *NATSSink) Ping(ctx context.Context) error {
	return s.conn.FlushWithContext(ctx)
}

func (s *NATSSink) Close() error {
	s.conn.Close()
	return nil
}
