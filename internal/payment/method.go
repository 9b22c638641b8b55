package payment

import (
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// MethodKind classifies a payment method by the extra request data it
// needs at creation time. Adding a method means adding one entry to
// methodKinds plus, for a new kind, one enrichment function.
type MethodKind int

const (
	// MethodKindPlain needs no method-specific parameters.
	MethodKindPlain MethodKind = iota
	// MethodKindBillingEmail wants the payer's email on the request
	// (bank-transfer-style methods).
	MethodKindBillingEmail
	// MethodKindCardToken accepts a token minted by the client-side
	// card components.
	MethodKindCardToken
)

var methodKinds = map[string]MethodKind{
	"banktransfer": MethodKindBillingEmail,
	"przelewy24":   MethodKindBillingEmail,
	"creditcard":   MethodKindCardToken,
}

func KindOfMethod(method string) MethodKind {
	return methodKinds[method]
}

// methodEnricher attaches kind-specific parameters to a payment request.
type methodEnricher func(req *mollietypes.CreatePaymentRequest, sub *SubmissionData)

var methodEnrichers = map[MethodKind]methodEnricher{
	MethodKindBillingEmail: func(req *mollietypes.CreatePaymentRequest, sub *SubmissionData) {
		if sub.Email != "" {
			req.BillingEmail = sub.Email
		}
	},
	MethodKindCardToken: func(req *mollietypes.CreatePaymentRequest, sub *SubmissionData) {
		if sub.CardToken != "" {
			req.CardToken = sub.CardToken
		}
	},
}

// enrichForMethod applies the selected method and its kind-specific
// parameters to the request.
func enrichForMethod(req *mollietypes.CreatePaymentRequest, sub *SubmissionData) {
	if sub.PaymentMethod == "" {
		return
	}
	req.Method = sub.PaymentMethod

	if enrich, ok := methodEnrichers[KindOfMethod(sub.PaymentMethod)]; ok {
		enrich(req, sub)
	}
}
