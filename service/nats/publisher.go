package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/solledger/solledger/service/metrics"
)

// Publisher defines the interface for publishing classification events to NATS.
type Publisher interface {
	// PublishClassification publishes a single classification event to JetStream.
	// The event is published to the subject "classified.{wallet_address}".
	PublishClassification(ctx context.Context, event *ClassificationEvent) error

	// PublishClassificationBatch publishes multiple classification events.
	// This is more efficient than calling PublishClassification multiple times.
	PublishClassificationBatch(ctx context.Context, events []*ClassificationEvent) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes classification events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	logger  *slog.Logger
	metrics *metrics.Metrics
}

const (
	// StreamName is the name of the JetStream stream for classifications.
	StreamName = "CLASSIFIED"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = "classified.*"

	// StreamRetention is how long messages are retained (30 days by default).
	StreamRetention = 30 * 24 * time.Hour
)

// NewPublisher creates a new JetStream publisher.
// It connects to NATS and ensures the stream exists.
func NewPublisher(natsURL string, logger *slog.Logger, m *metrics.Metrics) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("solledger-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		logger:  logger,
		metrics: m,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	streamConfig := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Classified transaction events from Solana wallets",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	_, err = p.js.CreateStream(ctx, streamConfig)
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// PublishClassification publishes a single classification event.
func (p *JetStreamPublisher) PublishClassification(ctx context.Context, event *ClassificationEvent) error {
	subject := fmt.Sprintf("classified.%s", event.WalletAddress)
	start := time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal classification event: %w", err)
	}

	_, err = p.js.Publish(ctx, subject, data)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordNATSPublish(subject, status, time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("failed to publish classification: %w", err)
	}

	p.logger.Debug("published classification event",
		"subject", subject,
		"signature", event.Signature,
		"wallet", event.WalletAddress,
		"primary_type", event.PrimaryType,
	)

	return nil
}

// PublishClassificationBatch publishes multiple classification events.
// A failure on one event does not abort the rest of the batch.
func (p *JetStreamPublisher) PublishClassificationBatch(ctx context.Context, events []*ClassificationEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := p.PublishClassification(ctx, event); err != nil {
			p.logger.Error("failed to publish classification in batch",
				"signature", event.Signature,
				"wallet", event.WalletAddress,
				"error", err,
			)
			continue
		}
	}

	p.logger.Debug("published classification batch",
		"count", len(events),
	)

	return nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
