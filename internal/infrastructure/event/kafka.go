package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig configures the render topics
type KafkaConfig struct {
	Brokers       []string
	RequestTopic  string
	ResponseTopic string
	ConsumerGroup string
}

// KafkaRenderTransport carries render requests and responses over the
// render topics shared with other entity-owning services. Requests go
// out on the request topic; responses arrive on the response topic and
// are dispatched to the registered handler, which decides ownership by
// correlation token.
type KafkaRenderTransport struct {
	config  KafkaConfig
	writer  *kafka.Writer
	reader  *kafka.Reader
	handler RenderResponseHandler
	logger  *zap.Logger
}

// NewKafkaRenderTransport creates the transport. handler may be nil
// for an emit-only transport.
func NewKafkaRenderTransport(config KafkaConfig, handler RenderResponseHandler, logger *zap.Logger) *KafkaRenderTransport {
	if logger == nil {
		logger = zap.NewNop()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.RequestTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	var reader *kafka.Reader
	if handler != nil {
		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  config.Brokers,
			GroupID:  config.ConsumerGroup,
			Topic:    config.ResponseTopic,
			MinBytes: 1,
			MaxBytes: 10 * 1024 * 1024,
			MaxWait:  time.Second,
		})
	}

	return &KafkaRenderTransport{
		config:  config,
		writer:  writer,
		reader:  reader,
		handler: handler,
		logger:  logger,
	}
}

// Emit publishes one render request, keyed by its correlation token
func (t *KafkaRenderTransport) Emit(ctx context.Context, req *RenderRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode render request: %w", err)
	}
	err = t.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.ID),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish render request: %w", err)
	}
	t.logger.Debug("render request emitted", zap.String("token", req.ID))
	return nil
}

// Run consumes render responses until the context is cancelled.
// Undecodable messages are committed and skipped so a poisoned
// message cannot wedge the topic; handler failures are logged and the
// message is committed anyway (at-least-once, partial-success
// semantics live in the handler).
func (t *KafkaRenderTransport) Run(ctx context.Context) error {
	if t.reader == nil {
		return fmt.Errorf("transport has no response handler registered")
	}

	t.logger.Info("consuming render responses",
		zap.String("topic", t.config.ResponseTopic),
		zap.String("group", t.config.ConsumerGroup),
	)

	for {
		msg, err := t.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Error("failed to fetch render response", zap.Error(err))
			continue
		}

		resp, err := DecodeRenderResponse(msg.Value)
		if err != nil {
			t.logger.Error("failed to decode render response", zap.Error(err))
		} else if err := t.handler.HandleRenderResponse(ctx, resp); err != nil {
			t.logger.Error("render response handling failed",
				zap.String("token", resp.ID),
				zap.Error(err),
			)
		}

		if err := t.reader.CommitMessages(ctx, msg); err != nil {
			t.logger.Error("failed to commit render response", zap.Error(err))
		}
	}
}

// Close shuts the writer and reader down
func (t *KafkaRenderTransport) Close() error {
	var firstErr error
	if err := t.writer.Close(); err != nil {
		firstErr = err
	}
	if t.reader != nil {
		if err := t.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ensure KafkaRenderTransport implements RenderTransport
var _ RenderTransport = (*KafkaRenderTransport)(nil)
