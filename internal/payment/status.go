package payment

import (
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// Status is the semantic vocabulary the classifier maps a raw provider
// resource onto.
type Status string

const (
	StatusPaid       Status = "paid"
	StatusRefund     Status = "refund"
	StatusChargeback Status = "chargeback"
	StatusOpen       Status = "open"
	StatusPending    Status = "pending"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusCanceled   Status = "canceled"
)

// HasStatus reports whether a payment resource satisfies one status
// predicate. A resource can satisfy several at once: paid and refund are
// not exclusive, so callers needing exclusivity must also check
// !HasStatus(p, StatusRefund) && !HasStatus(p, StatusChargeback).
//
// It must only ever be applied to a freshly fetched resource; a stale
// copy must never drive a state transition.
func HasStatus(p *mollietypes.Payment, status Status) bool {
	switch status {
	case StatusPaid:
		return p.PaidAt != ""
	case StatusRefund:
		return p.Links.Refunds != nil && p.Links.Refunds.Href != ""
	case StatusChargeback:
		return p.Links.Chargebacks != nil && p.Links.Chargebacks.Href != ""
	default:
		return p.Status == string(status)
	}
}
