package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/formbridge/mollie-gateway/internal/payment"
)

var _ = Describe("TransactionRef", func() {
	It("round-trips a plain payment reference", func() {
		ref := payment.TransactionRef{PaymentID: "tr_WDqYK6vllg"}

		Expect(ref.String()).To(Equal("tr_WDqYK6vllg"))
		Expect(ref.IsOrder()).To(BeFalse())
		Expect(payment.ParseTransactionRef(ref.String())).To(Equal(ref))
	})

	It("round-trips an order reference", func() {
		ref := payment.TransactionRef{PaymentID: "tr_WDqYK6vllg", OrderID: "ord_kEn1"}

		Expect(ref.String()).To(Equal("tr_WDqYK6vllg||ord_kEn1"))
		Expect(ref.IsOrder()).To(BeTrue())
		Expect(payment.ParseTransactionRef(ref.String())).To(Equal(ref))
	})

	It("parses an empty stored id as an empty reference", func() {
		ref := payment.ParseTransactionRef("")

		Expect(ref.PaymentID).To(BeEmpty())
		Expect(ref.OrderID).To(BeEmpty())
		Expect(ref.IsOrder()).To(BeFalse())
	})
})
