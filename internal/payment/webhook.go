package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
	"github.com/formbridge/mollie-gateway/internal/core/events"
	"github.com/formbridge/mollie-gateway/internal/mollie"
)

// ProcessNotification reconciles one provider webhook delivery. The body
// carries only a transaction id ("id=tr_..."); everything else is fetched
// fresh from the provider, which stays the single source of truth. The
// returned action is nil when the notification produced no state change.
// Safe to re-invoke with identical input at any time.
func (s *Service) ProcessNotification(ctx context.Context, entryID int64, body []byte) (*Action, error) {
	transactionID, ok := strings.CutPrefix(strings.TrimSpace(string(body)), "id=")
	if !ok || transactionID == "" {
		s.logger.Error("malformed webhook body", "entry_id", entryID)
		return nil, internal.ErrInvalidRequest
	}

	e, payment, transactionID, err := s.resolvePayment(ctx, transactionID, entryID)
	if err != nil {
		return nil, err
	}

	action := s.buildAction(ctx, payment, transactionID, entryID)
	if action == nil {
		// Statuses outside the vocabulary are a definite "no change",
		// not an error; the provider gets its 200 and stops retrying.
		s.logger.Info("webhook produced no action", "transaction_id", transactionID, "status", payment.Status)
		return nil, nil
	}

	// Delayed host feeds and late card details are handled before the
	// idempotency check: strong-customer-authentication flows may hit
	// this path on a retried delivery after a partial first attempt.
	if err := s.afterStatusChange(ctx, e, action, payment); err != nil {
		return nil, err
	}

	action.ID = transactionID + "_" + action.Type
	// Append the amount so each distinct partial refund gets its own id.
	if action.Type == ActionRefundPayment && action.Note != "" {
		action.ID += "_" + action.Amount
	}

	fresh, err := s.actions.Record(ctx, action.ID, entryID)
	if err != nil {
		return nil, fmt.Errorf("record webhook action: %w", err)
	}
	if !fresh {
		s.logger.Info("webhook action already processed", "action_id", action.ID, "entry_id", entryID)
		return nil, nil
	}

	if err := s.applyAction(ctx, e, action); err != nil {
		return nil, err
	}

	s.publishActionEvent(ctx, action)

	s.logger.Info("webhook action applied",
		"action_id", action.ID,
		"entry_id", entryID,
		"payment_status", action.PaymentStatus)

	return action, nil
}

// resolvePayment fetches the entry and the provider resource and proves
// they belong together. Order-prefixed ids resolve through the order's
// orderNumber, which must equal the entry id before the stored payment
// id is trusted; any mismatch rejects the notification without touching
// the entry.
func (s *Service) resolvePayment(ctx context.Context, transactionID string, entryID int64) (*entry.Entry, *mollietypes.Payment, string, error) {
	if err := s.api.Initialize(ctx); err != nil {
		s.logger.Error("unable to get payment because API is not initialized", "error", err)
		return nil, nil, "", internal.ErrConnectionUnavailable.WithCause(err)
	}

	e, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		s.logger.Error("entry not found for webhook", "entry_id", entryID, "error", err)
		return nil, nil, "", internal.ErrPaymentNotFound.WithCause(err)
	}

	stored := ParseTransactionRef(e.TransactionID)

	var order *mollietypes.Payment
	if strings.HasPrefix(transactionID, "ord_") {
		order, err = s.api.GetOrder(ctx, transactionID, s.cfg.Testmode)
		if err != nil {
			s.logger.Error("unable to find order", "order_id", transactionID, "error", err)
			return nil, nil, "", internal.ErrPaymentNotFound.WithCause(err)
		}

		if order.OrderNumber != strconv.FormatInt(entryID, 10) {
			s.logger.Error("order number and entry id do not match",
				"order_id", transactionID,
				"order_number", order.OrderNumber,
				"entry_id", entryID)
			return nil, nil, "", internal.ErrPaymentNotFound
		}

		transactionID = stored.PaymentID
	}

	if transactionID != stored.PaymentID {
		s.logger.Error("entry id and transaction id do not match",
			"entry_id", entryID,
			"transaction_id", transactionID)
		return nil, nil, "", internal.ErrPaymentNotFound
	}

	// The order resource, when present, already embeds everything the
	// classifier needs; only plain payments need a fetch.
	if order != nil {
		return e, order, transactionID, nil
	}

	payment, err := s.api.GetPayment(ctx, transactionID, s.cfg.Testmode)
	if err != nil {
		var apiErr *mollie.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			s.logger.Error("payment not found", "transaction_id", transactionID, "error", err)
			return nil, nil, "", internal.ErrPaymentNotFound.WithCause(err)
		}
		return nil, nil, "", fmt.Errorf("get payment %s: %w", transactionID, err)
	}

	return e, payment, transactionID, nil
}

// buildAction maps a freshly fetched provider resource onto a host
// action. The order of checks matters: a resource can satisfy several
// predicates at once (a paid payment keeps its paid timestamp after a
// refund), so the first match wins.
func (s *Service) buildAction(ctx context.Context, payment *mollietypes.Payment, transactionID string, entryID int64) *Action {
	method := s.methods.Label(ctx, payment.Method, payment.Amount.Currency)
	if method == "Credit card" && payment.Details != nil {
		method = payment.Details.CardLabel
	}

	action := &Action{
		EntryID:         entryID,
		TransactionID:   transactionID,
		TransactionType: "product",
		Amount:          payment.Amount.Value,
		PaymentMethod:   method,
	}

	switch {
	case HasStatus(payment, StatusPaid) && !HasStatus(payment, StatusRefund) && !HasStatus(payment, StatusChargeback):
		action.PaymentStatus = entry.StatusPaid
		action.Type = ActionCompletePayment

	case HasStatus(payment, StatusOpen) || HasStatus(payment, StatusPending):
		action.PaymentStatus = entry.StatusPending
		action.Type = ActionAddPendingPayment

	case HasStatus(payment, StatusFailed):
		action.PaymentStatus = entry.StatusFailed
		action.Type = ActionFailPayment

	case HasStatus(payment, StatusExpired):
		action.PaymentStatus = entry.StatusExpired
		action.Type = ActionVoidAuthorization

	case HasStatus(payment, StatusCanceled):
		action.PaymentStatus = entry.StatusCancelled
		action.Type = ActionVoidAuthorization

	case HasStatus(payment, StatusRefund):
		action.PaymentStatus = entry.StatusRefunded
		action.Type = ActionRefundPayment
		s.applyPartialRefund(action, payment)

	case HasStatus(payment, StatusChargeback):
		action.PaymentStatus = entry.StatusReversed
		action.Type = ActionRefundPayment

	default:
		return nil
	}

	return action
}

// applyPartialRefund rewrites a refund action when the provider's
// running refunded total has not yet reached the captured amount. The
// comparison is against the originally captured amount every time, not
// against a previously recorded refund, so each webhook reports the
// cumulative total rather than the increment.
func (s *Service) applyPartialRefund(action *Action, payment *mollietypes.Payment) {
	if payment.AmountRefunded == nil {
		return
	}
	refunded := payment.AmountRefunded.Value
	if refunded == "" || action.Amount == refunded {
		return
	}

	// Track partial refunds only until the refunded total reaches the
	// captured amount; past that point this is a plain full refund.
	if amountOrZero(action.Amount) <= amountOrZero(refunded) {
		return
	}

	currency := payment.AmountRefunded.Currency
	action.Amount = refunded
	action.AmountFormatted = FormatAmount(amountOrZero(refunded), currency) + " " + currency
	// The note carries the running total so repeated partial refunds of
	// one payment remain distinguishable in the entry history.
	action.Note = fmt.Sprintf(
		"Payment has been partially refunded. The total amount refunded so far: %s. Transaction Id: %s.",
		action.AmountFormatted, action.TransactionID)
}

// afterStatusChange triggers delayed host feeds once a payment is fully
// paid and backfills card details that were unknown at capture time.
func (s *Service) afterStatusChange(ctx context.Context, e *entry.Entry, action *Action, payment *mollietypes.Payment) error {
	if action.PaymentStatus == entry.StatusPaid {
		fd, err := s.feeds.GetActiveFeed(ctx, e.FormID)
		if err != nil {
			s.logger.Error("unable to load feed for delayed fulfillment", "form_id", e.FormID, "error", err)
		} else if fd.DelayedFeeds {
			f, err := s.forms.GetForm(ctx, e.FormID)
			if err != nil {
				return fmt.Errorf("get form %d: %w", e.FormID, err)
			}
			if err := s.delayed.TriggerDelayedFeeds(ctx, action.TransactionID, fd, e, f); err != nil {
				s.logger.Error("delayed feed trigger failed", "entry_id", e.ID, "error", err)
			}
		}
	}

	// Card details arrive only after checkout on redirect-based card
	// flows; the entry still carries the raw method id until then.
	if e.PaymentMethod == "creditcard" && payment.Details != nil && payment.Details.CardNumber != "" {
		label := payment.Details.CardLabel
		if err := s.entries.SetPaymentMethod(ctx, e.ID, label); err != nil {
			return fmt.Errorf("update payment method: %w", err)
		}
		if err := s.entries.SetCardDetails(ctx, e.ID, "XXXXXXXXXXXX"+payment.Details.CardNumber, label); err != nil {
			return fmt.Errorf("update card details: %w", err)
		}
	}

	return nil
}

// applyAction writes the reconciled state onto the entry through the
// narrow field updates and records an audit note.
func (s *Service) applyAction(ctx context.Context, e *entry.Entry, action *Action) error {
	if err := s.entries.SetPaymentStatus(ctx, e.ID, action.PaymentStatus); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	switch action.Type {
	case ActionCompletePayment:
		if err := s.entries.SetPaymentAmount(ctx, e.ID, amountOrZero(action.Amount)); err != nil {
			return fmt.Errorf("update payment amount: %w", err)
		}
		if action.PaymentMethod != "" {
			if err := s.entries.SetPaymentMethod(ctx, e.ID, action.PaymentMethod); err != nil {
				return fmt.Errorf("update payment method: %w", err)
			}
		}
	}

	note := action.Note
	if note == "" {
		note = defaultActionNote(action)
	}
	if err := s.entries.AddNote(ctx, e.ID, note); err != nil {
		return fmt.Errorf("add entry note: %w", err)
	}

	return nil
}

func defaultActionNote(action *Action) string {
	switch action.Type {
	case ActionCompletePayment:
		return fmt.Sprintf("Payment has been completed. Amount: %s. Transaction Id: %s.", action.Amount, action.TransactionID)
	case ActionAddPendingPayment:
		return fmt.Sprintf("Payment is pending. Amount: %s. Transaction Id: %s.", action.Amount, action.TransactionID)
	case ActionFailPayment:
		return fmt.Sprintf("Payment has failed. Amount: %s. Transaction Id: %s.", action.Amount, action.TransactionID)
	case ActionVoidAuthorization:
		return fmt.Sprintf("Authorization has been voided. Transaction Id: %s.", action.TransactionID)
	case ActionRefundPayment:
		return fmt.Sprintf("Payment has been refunded. Amount: %s. Transaction Id: %s.", action.Amount, action.TransactionID)
	}
	return fmt.Sprintf("Payment status changed to %s. Transaction Id: %s.", action.PaymentStatus, action.TransactionID)
}

func (s *Service) publishActionEvent(ctx context.Context, action *Action) {
	var event events.Event
	switch action.Type {
	case ActionCompletePayment:
		event = events.NewPaymentCompletedEvent(action.ID, action.EntryID, action.TransactionID, action.Amount, action.PaymentMethod)
	case ActionAddPendingPayment:
		event = events.NewPaymentPendingEvent(action.ID, action.EntryID, action.TransactionID, action.Amount, action.PaymentMethod)
	case ActionFailPayment:
		event = events.NewPaymentFailedEvent(action.ID, action.EntryID, action.TransactionID, action.Amount, action.PaymentMethod)
	case ActionRefundPayment:
		event = events.NewPaymentRefundedEvent(action.ID, action.EntryID, action.TransactionID, action.Amount, action.PaymentStatus, action.PaymentMethod)
	case ActionVoidAuthorization:
		event = events.NewPaymentVoidedEvent(action.ID, action.EntryID, action.TransactionID, action.Amount, action.PaymentStatus, action.PaymentMethod)
	default:
		return
	}

	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("unable to publish payment event", "event_id", event.EventID(), "error", err)
	}
}
