package payment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	errors "github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/form"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// Authorize creates the provider-side payment during form submission
// validation. The entry is in memory only; no entry id exists yet, so
// the return URL is a placeholder that capture backfills. Any error
// aborts the submission with a validation message on the payment field,
// and no entry is persisted.
func (s *Service) Authorize(ctx context.Context, fd *feed.Feed, sub *SubmissionData, f *form.Form, e *entry.Entry) (*AuthorizationResult, error) {
	if err := s.api.Initialize(ctx); err != nil {
		s.logger.Error("unable to create payment because API is not initialized", "error", err)
		return nil, errors.ErrAPINotInitialized.WithCause(err)
	}

	currency := e.Currency
	amount := mollietypes.Amount{
		Currency: currency,
		Value:    FormatAmount(sub.PaymentAmount, currency),
	}

	req := &mollietypes.CreatePaymentRequest{
		Amount:      amount,
		Locale:      s.cfg.Locale,
		Description: paymentDescription(0, sub),
		// Entry id is not known yet; capture rewrites this with the
		// real id.
		RedirectURL: s.urls.ReturnURL(f.ID, fd.ID, 0),
		ProfileID:   s.cfg.ProfileID,
		Testmode:    s.cfg.Testmode,
	}
	enrichForMethod(req, sub)

	var payment *mollietypes.Payment
	var err error

	if address := billingAddress(e, fd); address != nil {
		// A complete billing address unlocks the richer Orders API.
		payment, err = s.api.CreateOrder(ctx, s.buildOrderRequest(req, address, sub, currency))
	} else {
		payment, err = s.api.CreatePayment(ctx, req)
	}

	if err != nil {
		s.logger.Error("unable to create payment",
			"error", err,
			"amount", amount.Value,
			"currency", currency,
			"method", sub.PaymentMethod)
		return nil, errors.NewProviderRejectedError(err.Error(), err)
	}

	var ref TransactionRef
	if payment.IsOrder() {
		// Store both ids; capture and the webhook split them again.
		ref = TransactionRef{PaymentID: payment.EmbeddedPaymentID(), OrderID: payment.ID}
	} else {
		ref = TransactionRef{PaymentID: payment.ID}
	}

	result := &AuthorizationResult{
		Authorized:  true,
		Transaction: ref,
	}

	// Redirect-free methods can come back already paid; everything else
	// stays pending until the payer completes checkout.
	if !HasStatus(payment, StatusPaid) {
		result.PaymentPending = true
	}

	s.logger.Info("payment authorized",
		"transaction_id", ref.String(),
		"pending", result.PaymentPending,
		"method", sub.PaymentMethod)

	return result, nil
}

// buildOrderRequest converts a payment request into its Orders API
// equivalent: per-line items with zero-rate tax placeholders, shipping
// and discount lines, and order-incompatible fields dropped.
func (s *Service) buildOrderRequest(req *mollietypes.CreatePaymentRequest, address *mollietypes.Address, sub *SubmissionData, currency string) *mollietypes.CreateOrderRequest {
	order := &mollietypes.CreateOrderRequest{
		Amount:         req.Amount,
		OrderNumber:    newOrderNumber(),
		Locale:         req.Locale,
		RedirectURL:    req.RedirectURL,
		ProfileID:      req.ProfileID,
		Testmode:       req.Testmode,
		Method:         req.Method,
		BillingAddress: address,
	}

	zero := mollietypes.Amount{Currency: currency, Value: FormatAmount(0, currency)}

	for _, item := range sub.LineItems {
		line := mollietypes.OrderLine{
			Name:     lineName(item.Name, item.Description),
			Quantity: item.Quantity,
			UnitPrice: mollietypes.Amount{
				Currency: currency,
				Value:    FormatAmount(item.UnitPrice, currency),
			},
			TotalAmount: mollietypes.Amount{
				Currency: currency,
				Value:    FormatAmount(item.UnitPrice*float64(item.Quantity), currency),
			},
			VATRate:   "0.00",
			VATAmount: zero,
		}
		if item.IsShipping {
			line.Type = "shipping_fee"
		}
		order.Lines = append(order.Lines, line)
	}

	for _, discount := range sub.Discounts {
		// Formatting handles positive numbers only; the sign is
		// prepended afterwards.
		unitPrice := math.Abs(discount.UnitPrice)
		order.Lines = append(order.Lines, mollietypes.OrderLine{
			Name:     lineName(discount.Name, discount.Description),
			Type:     "discount",
			Quantity: discount.Quantity,
			UnitPrice: mollietypes.Amount{
				Currency: currency,
				Value:    "-" + FormatAmount(unitPrice, currency),
			},
			TotalAmount: mollietypes.Amount{
				Currency: currency,
				Value:    "-" + FormatAmount(unitPrice*float64(discount.Quantity), currency),
			},
			VATRate:   "0.00",
			VATAmount: zero,
		})
	}

	// The Orders API nests the card token under payment parameters and
	// has no plain description or billingEmail.
	if req.CardToken != "" {
		order.Payment = &mollietypes.OrderPaymentParams{CardToken: req.CardToken}
	}

	return order
}

func lineName(name, description string) string {
	if description == "" {
		return name
	}
	return name + " " + description
}

// newOrderNumber generates a unique order number: creation time plus a
// random suffix.
func newOrderNumber() string {
	return fmt.Sprintf("%d%s", time.Now().Unix(), uuid.NewString()[:8])
}
