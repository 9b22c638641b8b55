package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
	"github.com/formbridge/mollie-gateway/internal/payment"
)

var _ = Describe("HasStatus", func() {
	It("derives paid from the paid timestamp, not the status string", func() {
		p := &mollietypes.Payment{Status: "paid"}
		Expect(payment.HasStatus(p, payment.StatusPaid)).To(BeFalse())

		p.PaidAt = "2026-03-01T10:00:00+00:00"
		Expect(payment.HasStatus(p, payment.StatusPaid)).To(BeTrue())
	})

	It("derives refund from the refunds link", func() {
		p := &mollietypes.Payment{Status: "paid", PaidAt: "2026-03-01T10:00:00+00:00"}
		Expect(payment.HasStatus(p, payment.StatusRefund)).To(BeFalse())

		p.Links.Refunds = &mollietypes.Link{Href: "https://api.mollie.test/v2/payments/tr_1/refunds"}
		Expect(payment.HasStatus(p, payment.StatusRefund)).To(BeTrue())

		// A refunded payment keeps its paid timestamp; the predicates
		// are not exclusive.
		Expect(payment.HasStatus(p, payment.StatusPaid)).To(BeTrue())
	})

	It("treats an empty refunds href as no refund", func() {
		p := &mollietypes.Payment{Links: mollietypes.Links{Refunds: &mollietypes.Link{}}}
		Expect(payment.HasStatus(p, payment.StatusRefund)).To(BeFalse())
	})

	It("derives chargeback from the chargebacks link", func() {
		p := &mollietypes.Payment{}
		Expect(payment.HasStatus(p, payment.StatusChargeback)).To(BeFalse())

		p.Links.Chargebacks = &mollietypes.Link{Href: "https://api.mollie.test/v2/payments/tr_1/chargebacks"}
		Expect(payment.HasStatus(p, payment.StatusChargeback)).To(BeTrue())
	})

	It("matches the raw status string for everything else", func() {
		p := &mollietypes.Payment{Status: "expired"}
		Expect(payment.HasStatus(p, payment.StatusExpired)).To(BeTrue())
		Expect(payment.HasStatus(p, payment.StatusOpen)).To(BeFalse())
		Expect(payment.HasStatus(p, payment.StatusCanceled)).To(BeFalse())
	})
})
