package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on TopicBookingEvents.
const (
	EventBookingCreated         = "booking.created"
	EventBookingStatusChanged   = "booking.status_changed"
	EventBookingCancelled       = "booking.cancelled"
	EventBookingPaymentRecorded = "booking.payment_recorded"
	EventBookingBalanceDue      = "booking.balance_due"
)

// EventPaymentReceived is consumed from TopicPaymentEvents.
const EventPaymentReceived = "payment.received"

// CreatedEvent is published once a submission is persisted.
type CreatedEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	Status        BookingStatus   `json:"status"`
	ClientID      uuid.UUID       `json:"client_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	TravelStart   Date            `json:"travel_start_date"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// StatusChangedEvent is published on promotion and completion.
type StatusChangedEvent struct {
	BookingID     uuid.UUID     `json:"booking_id"`
	BookingNumber string        `json:"booking_number"`
	From          BookingStatus `json:"from"`
	To            BookingStatus `json:"to"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// CancelledEvent is published when a booking is cancelled.
type CancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentRecordedEvent is published after a payment is applied.
type PaymentRecordedEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	FullyPaid     bool            `json:"fully_paid"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// BalanceDueEvent asks the notification side to remind the client.
type BalanceDueEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	ClientEmail   string          `json:"client_email,omitempty"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Currency      string          `json:"currency"`
	DueDate       Date            `json:"due_date"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// PaymentReceivedEvent is what the payment side publishes when money arrives.
type PaymentReceivedEvent struct {
	BookingID  uuid.UUID       `json:"booking_id"`
	PaymentID  string          `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	ReceivedAt time.Time       `json:"received_at"`
}
