package payment

import (
	"context"
	"fmt"

	"github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
)

// Confirmation is what the return page renders after the payer comes
// back from the provider's hosted checkout.
type Confirmation struct {
	FormID        int64  `json:"form_id"`
	EntryID       int64  `json:"entry_id"`
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id"`
}

// ConfirmReturn handles the signed return redirect. The ids are only
// trusted after the embedded hash verifies; a tampered parameter is
// rejected before any lookup. The payment is re-fetched so the page and
// any delayed feeds reflect the provider's current state, not the state
// at capture time.
func (s *Service) ConfirmReturn(ctx context.Context, param string) (*Confirmation, error) {
	formID, feedID, entryID, err := s.urls.DecodeReturn(param)
	if err != nil {
		s.logger.Error("invalid return parameter", "error", err)
		return nil, internal.ErrInvalidRequest.WithCause(err)
	}

	e, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, internal.ErrEntryNotFound.WithCause(err)
	}

	f, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		return nil, internal.ErrFormNotFound.WithCause(err)
	}

	fd, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return nil, internal.ErrFeedNotFound.WithCause(err)
	}

	stored := ParseTransactionRef(e.TransactionID)

	confirmation := &Confirmation{
		FormID:        formID,
		EntryID:       entryID,
		PaymentStatus: e.PaymentStatus,
		TransactionID: stored.PaymentID,
	}

	if stored.PaymentID == "" {
		return confirmation, nil
	}

	if err := s.api.Initialize(ctx); err != nil {
		// The webhook will still reconcile; the page falls back to the
		// stored entry state.
		s.logger.Error("unable to refresh payment on return", "error", err)
		return confirmation, nil
	}

	payment, err := s.api.GetPayment(ctx, stored.PaymentID, s.cfg.Testmode)
	if err != nil {
		s.logger.Error("unable to fetch payment on return", "transaction_id", stored.PaymentID, "error", err)
		return confirmation, nil
	}

	// Card flows behind strong customer authentication only reveal card
	// details after checkout, so backfill them here.
	if e.PaymentMethod == "creditcard" && payment.Details != nil && payment.Details.CardNumber != "" {
		label := payment.Details.CardLabel
		if err := s.entries.SetPaymentMethod(ctx, e.ID, label); err != nil {
			return nil, fmt.Errorf("update payment method: %w", err)
		}
		if err := s.entries.SetCardDetails(ctx, e.ID, "XXXXXXXXXXXX"+payment.Details.CardNumber, label); err != nil {
			return nil, fmt.Errorf("update card details: %w", err)
		}
	}

	if HasStatus(payment, StatusPaid) && fd.DelayedFeeds {
		if err := s.delayed.TriggerDelayedFeeds(ctx, stored.PaymentID, fd, e, f); err != nil {
			s.logger.Error("delayed feed trigger failed", "entry_id", e.ID, "error", err)
		}
	}

	if HasStatus(payment, StatusPaid) && e.PaymentStatus != entry.StatusPaid {
		confirmation.PaymentStatus = entry.StatusPaid
	}

	return confirmation, nil
}
