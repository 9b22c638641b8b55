package payment

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

var _ = Describe("billingAddress", func() {
	var (
		fd *feed.Feed
		e  *entry.Entry
	)

	fullValues := func() map[string]string {
		return map[string]string{
			"1": "Anna",
			"2": "Jansen",
			"3": "Keizersgracht 1",
			"4": "Unit B",
			"5": "Amsterdam",
			"6": "NH",
			"7": "1015 CJ",
			"8": "Netherlands",
			"9": "anna@example.org",
		}
	}

	BeforeEach(func() {
		fd = &feed.Feed{ID: 5, FormID: 10}
		Expect(fd.SetBillingFields(feed.BillingFields{
			FirstName: "1", LastName: "2", Address: "3", Address2: "4",
			City: "5", State: "6", Zip: "7", Country: "8", Email: "9",
		})).To(Succeed())

		e = &entry.Entry{FormID: 10}
		Expect(e.SetFieldValues(fullValues())).To(Succeed())
	})

	It("assembles a complete address", func() {
		address := billingAddress(e, fd)

		Expect(address).To(Equal(&mollietypes.Address{
			GivenName:        "Anna",
			FamilyName:       "Jansen",
			StreetAndNumber:  "Keizersgracht 1",
			StreetAdditional: "Unit B",
			PostalCode:       "1015 CJ",
			City:             "Amsterdam",
			Region:           "NH",
			Country:          "NL",
			Email:            "anna@example.org",
		}))
	})

	It("returns nil when any required part is missing", func() {
		for _, fieldID := range []string{"1", "2", "3", "5", "7", "8", "9"} {
			values := fullValues()
			delete(values, fieldID)
			Expect(e.SetFieldValues(values)).To(Succeed())

			Expect(billingAddress(e, fd)).To(BeNil(), "field %s missing should yield no address", fieldID)
		}
	})

	It("tolerates missing optional parts", func() {
		values := fullValues()
		delete(values, "4")
		delete(values, "6")
		Expect(e.SetFieldValues(values)).To(Succeed())

		address := billingAddress(e, fd)
		Expect(address).NotTo(BeNil())
		Expect(address.StreetAdditional).To(BeEmpty())
		Expect(address.Region).To(BeEmpty())
	})

	It("returns nil when the feed has no billing mapping", func() {
		Expect(billingAddress(e, &feed.Feed{ID: 6, FormID: 10})).To(BeNil())
	})

	Describe("countryCode", func() {
		It("passes two-letter codes through uppercased", func() {
			Expect(countryCode("nl")).To(Equal("NL"))
			Expect(countryCode("DE")).To(Equal("DE"))
		})

		It("maps known country names", func() {
			Expect(countryCode("Netherlands")).To(Equal("NL"))
			Expect(countryCode("united kingdom")).To(Equal("GB"))
			Expect(countryCode(" United States ")).To(Equal("US"))
		})

		It("rejects unknown names", func() {
			Expect(countryCode("Atlantis")).To(BeEmpty())
		})
	})
})

var _ = Describe("enrichForMethod", func() {
	var (
		req *mollietypes.CreatePaymentRequest
		sub *SubmissionData
	)

	BeforeEach(func() {
		req = &mollietypes.CreatePaymentRequest{}
		sub = &SubmissionData{Email: "payer@example.org", CardToken: "tkn_abc"}
	})

	It("leaves the request untouched when no method is selected", func() {
		enrichForMethod(req, sub)

		Expect(req.Method).To(BeEmpty())
		Expect(req.BillingEmail).To(BeEmpty())
		Expect(req.CardToken).To(BeEmpty())
	})

	It("sets only the method for plain methods", func() {
		sub.PaymentMethod = "ideal"
		enrichForMethod(req, sub)

		Expect(req.Method).To(Equal("ideal"))
		Expect(req.BillingEmail).To(BeEmpty())
		Expect(req.CardToken).To(BeEmpty())
	})

	It("attaches the billing email for email-kind methods", func() {
		for _, method := range []string{"banktransfer", "przelewy24"} {
			req = &mollietypes.CreatePaymentRequest{}
			sub.PaymentMethod = method
			enrichForMethod(req, sub)

			Expect(req.Method).To(Equal(method))
			Expect(req.BillingEmail).To(Equal("payer@example.org"))
		}
	})

	It("attaches the card token for card methods", func() {
		sub.PaymentMethod = "creditcard"
		enrichForMethod(req, sub)

		Expect(req.Method).To(Equal("creditcard"))
		Expect(req.CardToken).To(Equal("tkn_abc"))
		Expect(req.BillingEmail).To(BeEmpty())
	})

	It("classifies methods by kind", func() {
		Expect(KindOfMethod("ideal")).To(Equal(MethodKindPlain))
		Expect(KindOfMethod("banktransfer")).To(Equal(MethodKindBillingEmail))
		Expect(KindOfMethod("creditcard")).To(Equal(MethodKindCardToken))
	})
})
