package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/formbridge/mollie-gateway/internal/payment"
)

var _ = Describe("Amount formatting", func() {
	Describe("FormatAmount", func() {
		It("renders two decimals for regular currencies", func() {
			Expect(payment.FormatAmount(100.0, "EUR")).To(Equal("100.00"))
			Expect(payment.FormatAmount(0.5, "USD")).To(Equal("0.50"))
			Expect(payment.FormatAmount(0, "EUR")).To(Equal("0.00"))
		})

		It("never emits a thousands separator", func() {
			Expect(payment.FormatAmount(1234567.89, "EUR")).To(Equal("1234567.89"))
		})

		It("renders integral strings for zero-decimal currencies", func() {
			Expect(payment.FormatAmount(15000, "JPY")).To(Equal("15000"))
			Expect(payment.FormatAmount(999.6, "KRW")).To(Equal("1000"))
			Expect(payment.FormatAmount(0, "ISK")).To(Equal("0"))
		})

		It("treats the currency code case-insensitively", func() {
			Expect(payment.FormatAmount(100, "jpy")).To(Equal("100"))
			Expect(payment.FormatAmount(100, "eur")).To(Equal("100.00"))
		})
	})

	Describe("ParseAmount", func() {
		It("round-trips formatted values", func() {
			value, err := payment.ParseAmount("100.00")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(100.0))
		})

		It("tolerates surrounding whitespace", func() {
			value, err := payment.ParseAmount(" 40.00 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(40.0))
		})

		It("rejects garbage", func() {
			_, err := payment.ParseAmount("forty")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("IsZeroDecimalCurrency", func() {
		It("knows the zero-decimal set", func() {
			Expect(payment.IsZeroDecimalCurrency("JPY")).To(BeTrue())
			Expect(payment.IsZeroDecimalCurrency("VND")).To(BeTrue())
			Expect(payment.IsZeroDecimalCurrency("EUR")).To(BeFalse())
		})
	})
})
