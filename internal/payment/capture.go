package payment

import (
	"context"
	"strconv"

	errors "github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/form"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// Capture runs after the entry is persisted and an entry id exists. It
// backfills the real return and webhook URLs onto the provider payment
// (and order, when present) and reports whether the payment completed
// without a redirect. An empty result with a redirect URL means the
// payer still has to finish checkout off-site.
func (s *Service) Capture(ctx context.Context, auth AuthorizationResult, fd *feed.Feed, sub *SubmissionData, f *form.Form, e *entry.Entry) (*CaptureResult, error) {
	if err := s.api.Initialize(ctx); err != nil {
		s.logger.Error("unable to check if payment is paid because API is not initialized", "error", err)
		return nil, errors.ErrConnectionUnavailable.WithCause(err)
	}

	ref := auth.Transaction

	payment, err := s.api.GetPayment(ctx, ref.PaymentID, s.cfg.Testmode)
	if err != nil {
		s.logger.Error("unable to find payment", "transaction_id", ref.PaymentID, "error", err)
		return nil, errors.ErrPaymentUnreadable.WithCause(err)
	}

	// Redirect-free methods are paid already and need no URLs; clearing
	// them at the provider avoids a dangling webhook registration.
	isPaid := HasStatus(payment, StatusPaid)
	var returnURL, webhookURL string
	if !isPaid {
		returnURL = s.urls.ReturnURL(f.ID, fd.ID, e.ID)
		webhookURL = s.urls.WebhookURL(e.ID)
	}

	metadata := map[string]string{"entry_id": strconv.FormatInt(e.ID, 10)}

	updated, err := s.api.UpdatePayment(ctx, payment.ID, &mollietypes.UpdatePaymentRequest{
		Description: paymentDescription(e.ID, sub),
		RedirectURL: returnURL,
		WebhookURL:  webhookURL,
		Metadata:    metadata,
		Testmode:    s.cfg.Testmode,
	})
	if err != nil && !isPaid {
		s.logger.Error("unable to update payment", "transaction_id", payment.ID, "error", err)
		return nil, errors.ErrUpdateFailed.WithCause(err)
	}

	if ref.IsOrder() {
		// The order was created with a provisional order number before
		// the entry existed. The entry id replaces it here; webhook
		// notifications for the order resolve through this match.
		updated, err = s.api.UpdatePayment(ctx, ref.OrderID, &mollietypes.UpdatePaymentRequest{
			OrderNumber: strconv.FormatInt(e.ID, 10),
			RedirectURL: returnURL,
			WebhookURL:  webhookURL,
			Metadata:    metadata,
			Testmode:    s.cfg.Testmode,
		})
		if err != nil && !isPaid {
			s.logger.Error("unable to update order", "order_id", ref.OrderID, "error", err)
			return nil, errors.ErrOrderUpdateFailed.WithCause(err)
		}
	}

	if isPaid {
		label := s.methods.Label(ctx, payment.Method, e.Currency)

		result := &CaptureResult{
			Success:       true,
			TransactionID: payment.ID,
			Amount:        amountOrZero(payment.Amount.Value),
			PaymentMethod: label,
		}

		if label == "Credit card" && payment.Details != nil {
			result.CardNumber = "XXXXXXXXXXXX" + payment.Details.CardNumber
			result.CardLabel = payment.Details.CardLabel
		}

		s.logger.Info("payment captured", "transaction_id", payment.ID, "amount", payment.Amount.Value)
		return result, nil
	}

	// Not paid yet: the payer finishes on the provider's hosted
	// checkout page and the webhook reports the outcome later.
	redirect := updated.CheckoutURL()
	s.logger.Info("payment awaiting checkout", "transaction_id", payment.ID, "redirect_url", redirect)

	return &CaptureResult{RedirectURL: redirect}, nil
}
