package payment_test

import (
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/formbridge/mollie-gateway/internal/payment"
)

var _ = Describe("URLBuilder", func() {
	var builder *payment.URLBuilder

	BeforeEach(func() {
		builder = payment.NewURLBuilder("https://forms.example.org/", "0123456789abcdef")
	})

	It("builds a webhook URL carrying the entry id", func() {
		Expect(builder.WebhookURL(42)).To(Equal("https://forms.example.org/webhooks/mollie?entry_id=42"))
	})

	It("round-trips the return payload through the signed parameter", func() {
		returnURL := builder.ReturnURL(10, 5, 42)
		Expect(returnURL).To(HavePrefix("https://forms.example.org/payments/return?mollie_result="))

		parsed, err := url.Parse(returnURL)
		Expect(err).NotTo(HaveOccurred())
		param := parsed.Query().Get("mollie_result")

		formID, feedID, entryID, err := builder.DecodeReturn(param)
		Expect(err).NotTo(HaveOccurred())
		Expect(formID).To(Equal(int64(10)))
		Expect(feedID).To(Equal(int64(5)))
		Expect(entryID).To(Equal(int64(42)))
	})

	It("builds placeholder return URLs with entry id zero", func() {
		parsed, err := url.Parse(builder.ReturnURL(10, 5, 0))
		Expect(err).NotTo(HaveOccurred())

		_, _, entryID, err := builder.DecodeReturn(parsed.Query().Get("mollie_result"))
		Expect(err).NotTo(HaveOccurred())
		Expect(entryID).To(Equal(int64(0)))
	})

	It("rejects a tampered parameter", func() {
		parsed, err := url.Parse(builder.ReturnURL(10, 5, 42))
		Expect(err).NotTo(HaveOccurred())
		param := parsed.Query().Get("mollie_result")

		tampered := strings.Replace(param, param[:2], "zz", 1)
		_, _, _, err = builder.DecodeReturn(tampered)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a parameter signed with a different secret", func() {
		other := payment.NewURLBuilder("https://forms.example.org", "another-secret-value")
		parsed, err := url.Parse(other.ReturnURL(10, 5, 42))
		Expect(err).NotTo(HaveOccurred())

		_, _, _, err = builder.DecodeReturn(parsed.Query().Get("mollie_result"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("hash mismatch"))
	})

	It("rejects values that are not base64", func() {
		_, _, _, err := builder.DecodeReturn("%%%not-base64%%%")
		Expect(err).To(HaveOccurred())
	})
})
