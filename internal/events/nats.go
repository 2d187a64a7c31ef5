package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const connectTimeout = 2 * time.Second

// NATSPublisher publishes run events to a JetStream stream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to url and makes sure a stream captures subject.
func NewNATSPublisher(ctx context.Context, url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("solveplot"), nats.Timeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName(subject),
		Description: "solveplot run events",
		Subjects:    []string{subject},
		MaxAge:      30 * 24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	slog.Info("NATS publisher initialized", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, js: js, subject: subject}, nil
}

// StreamName derives a valid stream name from subject.
func StreamName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "ALL", ">", "ALL", " ", "_")
	return strings.ToUpper(r.Replace(subject))
}

// Publish sends ev. The run id is used as message id so retries by callers
// are deduplicated by the server.
func (p *NATSPublisher) Publish(ctx context.Context, ev RunEvent) error {
	data, err := ev.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(ev.RunID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published run event", "run_id", ev.RunID, "outcome", ev.Outcome)
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
