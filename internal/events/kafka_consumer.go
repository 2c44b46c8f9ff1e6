package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/domain"
	bookingDomain "github.com/Kilat-Travel/service-booking/internal/domain/booking"
	"github.com/Kilat-Travel/service-booking/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentRecorder applies payments to bookings. *application.BookingService implements it.
type PaymentRecorder interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
	RecordPayment(ctx context.Context, bookingID uuid.UUID, req application.RecordPaymentRequest) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and records them against bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, bookingDomain.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case bookingDomain.EventPaymentReceived:
		return c.handlePaymentReceived(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentReceived(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt bookingDomain.PaymentReceivedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentReceivedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	log := c.logger.With(
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID),
	)
	log.Info("processing payment received event", zap.String("amount", evt.Amount.StringFixed(2)))

	req := application.RecordPaymentRequest{
		Amount:    evt.Amount,
		Method:    evt.Method,
		Reference: evt.PaymentID,
	}
	if !evt.ReceivedAt.IsZero() {
		req.PaidAt = &evt.ReceivedAt
	}

	_, err := c.service.RecordPayment(ctx, evt.BookingID, req)
	if err == nil {
		log.Info("payment recorded from payment event")
		return nil
	}

	var (
		conflict   *domain.ConflictError
		validation *domain.ValidationError
		state      *domain.InvalidStateError
	)
	switch {
	case errors.As(err, &conflict):
		if c.alreadyRecorded(ctx, evt) {
			log.Info("payment already recorded, skipping")
			return nil
		}
		// Concurrent update of the booking; retry.
		return err
	case domain.IsNotFound(err), errors.As(err, &validation), errors.As(err, &state):
		log.Error("payment event rejected", zap.Error(err))
		return nil
	}

	log.Error("failed to record payment", zap.Error(err))
	return err
}

func (c *PaymentEventConsumer) alreadyRecorded(ctx context.Context, evt bookingDomain.PaymentReceivedEvent) bool {
	if evt.PaymentID == "" {
		return false
	}
	bk, err := c.service.GetBooking(ctx, evt.BookingID)
	if err != nil {
		return false
	}
	for _, p := range bk.Payments {
		if p.Reference == evt.PaymentID {
			return true
		}
	}
	return false
}
