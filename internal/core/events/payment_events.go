package events

import (
	"time"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentPending   = "payment.pending"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentRefunded  = "payment.refunded"
	EventTypePaymentVoided    = "payment.voided"
	EventTypeDelayedFeeds     = "feeds.delayed_fulfillment"
)

// PaymentEvent reports one reconciled payment state change for an entry.
// The event id reuses the synthesized action id, so bus consumers
// inherit the same idempotency key the webhook layer deduplicates on.
type PaymentEvent struct {
	BaseEvent
	EntryID       int64  `json:"entry_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
}

func newPaymentEvent(eventType, actionID string, entryID int64, transactionID, amount, status, method string) *PaymentEvent {
	return &PaymentEvent{
		BaseEvent: BaseEvent{
			ID:        actionID,
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":       entryID,
				"transaction_id": transactionID,
				"amount":         amount,
				"payment_status": status,
				"payment_method": method,
			},
		},
		EntryID:       entryID,
		TransactionID: transactionID,
		Amount:        amount,
		PaymentStatus: status,
		PaymentMethod: method,
	}
}

func NewPaymentCompletedEvent(actionID string, entryID int64, transactionID, amount, method string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentCompleted, actionID, entryID, transactionID, amount, "Paid", method)
}

func NewPaymentPendingEvent(actionID string, entryID int64, transactionID, amount, method string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentPending, actionID, entryID, transactionID, amount, "Pending", method)
}

func NewPaymentFailedEvent(actionID string, entryID int64, transactionID, amount, method string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentFailed, actionID, entryID, transactionID, amount, "Failed", method)
}

func NewPaymentRefundedEvent(actionID string, entryID int64, transactionID, amount, status, method string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentRefunded, actionID, entryID, transactionID, amount, status, method)
}

func NewPaymentVoidedEvent(actionID string, entryID int64, transactionID, amount, status, method string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentVoided, actionID, entryID, transactionID, amount, status, method)
}

// DelayedFeedsEvent tells feed integrations that a payment completed
// and their delayed fulfillment may run now.
type DelayedFeedsEvent struct {
	BaseEvent
	EntryID       int64  `json:"entry_id"`
	FeedID        int64  `json:"feed_id"`
	FormID        int64  `json:"form_id"`
	TransactionID string `json:"transaction_id"`
}

func NewDelayedFeedsEvent(transactionID string, entryID, feedID, formID int64) *DelayedFeedsEvent {
	return &DelayedFeedsEvent{
		BaseEvent: BaseEvent{
			ID:        "delayed_feeds_" + transactionID,
			Type:      EventTypeDelayedFeeds,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":       entryID,
				"feed_id":        feedID,
				"form_id":        formID,
				"transaction_id": transactionID,
			},
		},
		EntryID:       entryID,
		FeedID:        feedID,
		FormID:        formID,
		TransactionID: transactionID,
	}
}
