package payment_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/form"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
	"github.com/formbridge/mollie-gateway/internal/core/events"
	"github.com/formbridge/mollie-gateway/internal/mollie"
	"github.com/formbridge/mollie-gateway/internal/payment"
)

var _ = Describe("Payment handlers", func() {
	var (
		router  *chi.Mux
		api     *mockProviderAPI
		entries *mockEntryStore
		urls    *payment.URLBuilder
		service *payment.Service
	)

	submissionBody := func() []byte {
		raw, err := json.Marshal(map[string]any{
			"currency":       "EUR",
			"payment_amount": 100.0,
			"field_values":   map[string]string{"1": "Anna"},
			"line_items": []map[string]any{
				{"name": "Widget", "quantity": 1, "unit_price": 100.0},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		return raw
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		api = newMockProviderAPI()
		api.methods = []mollietypes.Method{{ID: "ideal", Description: "iDEAL"}}
		entries = newMockEntryStore()
		feeds := &mockFeedStore{feeds: map[int64]*feed.Feed{5: {ID: 5, FormID: 10, Active: true}}}
		forms := &mockFormStore{forms: map[int64]*form.Form{10: {ID: 10, Title: "Order Form"}}}

		methods := payment.NewMethodDirectory(api, mollie.NewMemoryMethodsCache(time.Hour), "pfl_test", true, logger)
		urls = payment.NewURLBuilder("https://forms.example.org", "0123456789abcdef")
		bus := events.NewEventBus(logger)

		service = payment.NewService(api, entries, feeds, forms, &mockDelayedRunner{}, newMockActionLog(),
			methods, urls, bus, payment.Config{ProfileID: "pfl_test", Testmode: true, Locale: "en_US"}, logger)

		handler := payment.NewHandler(service, logger)
		webhookHandler := payment.NewWebhookHandler(service, logger)

		router = chi.NewRouter()
		router.Post("/api/v1/forms/{form_id}/submissions", handler.SubmitForm)
		router.Get("/api/v1/methods", handler.ListMethods)
		router.Get("/payments/return", handler.HandleReturn)
		router.Post("/webhooks/mollie", webhookHandler.HandleNotification)
	})

	Describe("POST /api/v1/forms/{form_id}/submissions", func() {
		It("persists a processing entry and returns the checkout redirect", func() {
			api.createdPayment = &mollietypes.Payment{
				Resource: "payment",
				ID:       "tr_1",
				Status:   "open",
				Amount:   mollietypes.Amount{Currency: "EUR", Value: "100.00"},
				Links:    mollietypes.Links{Checkout: &mollietypes.Link{Href: "https://checkout.test/tr_1"}},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/10/submissions", bytes.NewReader(submissionBody()))
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusCreated))

			var resp payment.SubmissionResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.PaymentStatus).To(Equal(entry.StatusProcessing))
			Expect(resp.TransactionID).To(Equal("tr_1"))
			Expect(resp.RedirectURL).To(Equal("https://checkout.test/tr_1"))

			stored := entries.entries[resp.EntryID]
			Expect(stored).NotTo(BeNil())
			Expect(stored.PaymentStatus).To(Equal(entry.StatusProcessing))
			Expect(stored.TransactionID).To(Equal("tr_1"))

			// Capture must have pushed the real URLs for the new entry.
			update := api.updates["tr_1"]
			Expect(update).NotTo(BeNil())
			Expect(update.WebhookURL).To(Equal(fmt.Sprintf("https://forms.example.org/webhooks/mollie?entry_id=%d", resp.EntryID)))
		})

		It("finalizes the entry when the payment completed without a redirect", func() {
			api.createdPayment = &mollietypes.Payment{
				Resource: "payment",
				ID:       "tr_paid",
				Status:   "paid",
				Method:   "ideal",
				PaidAt:   "2026-03-01T10:00:00+00:00",
				Amount:   mollietypes.Amount{Currency: "EUR", Value: "100.00"},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/10/submissions", bytes.NewReader(submissionBody()))
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusCreated))

			var resp payment.SubmissionResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.PaymentStatus).To(Equal(entry.StatusPaid))
			Expect(resp.RedirectURL).To(BeEmpty())

			stored := entries.entries[resp.EntryID]
			Expect(stored.PaymentStatus).To(Equal(entry.StatusPaid))
			Expect(stored.PaymentAmount).To(Equal(100.0))
			Expect(stored.PaymentMethod).To(Equal("iDEAL"))
		})

		It("rejects a submission without line items", func() {
			raw, err := json.Marshal(map[string]any{"currency": "EUR", "payment_amount": 100.0})
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/10/submissions", bytes.NewReader(raw))
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(entries.entries).To(BeEmpty())
		})

		It("persists nothing when the provider rejects the payment", func() {
			api.createErr = &mollie.APIError{Status: 422, Title: "Unprocessable Entity", Detail: "The amount is higher than the maximum"}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/10/submissions", bytes.NewReader(submissionBody()))
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(entries.entries).To(BeEmpty())
		})

		It("rejects an unknown form", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/999/submissions", bytes.NewReader(submissionBody()))
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /payments/return", func() {
		It("rejects a missing parameter", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/return", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("confirms a completed payment", func() {
			e := &entry.Entry{FormID: 10, Currency: "EUR", PaymentStatus: entry.StatusProcessing, TransactionID: "tr_1"}
			Expect(entries.CreateEntry(nil, e)).To(Succeed())
			api.payments["tr_1"] = &mollietypes.Payment{
				Resource: "payment",
				ID:       "tr_1",
				Status:   "paid",
				PaidAt:   "2026-03-01T10:00:00+00:00",
				Amount:   mollietypes.Amount{Currency: "EUR", Value: "100.00"},
			}

			returnURL, err := url.Parse(urls.ReturnURL(10, 5, e.ID))
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/return?"+returnURL.RawQuery, nil))

			Expect(rec.Code).To(Equal(http.StatusOK))

			var confirmation payment.Confirmation
			Expect(json.Unmarshal(rec.Body.Bytes(), &confirmation)).To(Succeed())
			Expect(confirmation.EntryID).To(Equal(e.ID))
			Expect(confirmation.PaymentStatus).To(Equal(entry.StatusPaid))
			Expect(confirmation.TransactionID).To(Equal("tr_1"))
		})
	})

	Describe("POST /webhooks/mollie", func() {
		var e *entry.Entry

		BeforeEach(func() {
			e = &entry.Entry{FormID: 10, Currency: "EUR", PaymentStatus: entry.StatusProcessing, TransactionID: "tr_1"}
			Expect(entries.CreateEntry(nil, e)).To(Succeed())
			api.payments["tr_1"] = &mollietypes.Payment{
				Resource: "payment",
				ID:       "tr_1",
				Status:   "paid",
				Method:   "ideal",
				PaidAt:   "2026-03-01T10:00:00+00:00",
				Amount:   mollietypes.Amount{Currency: "EUR", Value: "100.00"},
			}
		})

		notify := func(query, body string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhooks/mollie"+query, bytes.NewBufferString(body))
			router.ServeHTTP(rec, req)
			return rec
		}

		It("rejects a missing entry id", func() {
			Expect(notify("", "id=tr_1").Code).To(Equal(http.StatusBadRequest))
		})

		It("processes a status change", func() {
			rec := notify(fmt.Sprintf("?entry_id=%d", e.ID), "id=tr_1")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"status":"processed"`))
			Expect(e.PaymentStatus).To(Equal(entry.StatusPaid))
		})

		It("reports no change for a repeated delivery", func() {
			Expect(notify(fmt.Sprintf("?entry_id=%d", e.ID), "id=tr_1").Code).To(Equal(http.StatusOK))

			rec := notify(fmt.Sprintf("?entry_id=%d", e.ID), "id=tr_1")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"status":"no_change"`))
		})

		It("rejects a transaction that belongs to another entry", func() {
			api.payments["tr_other"] = &mollietypes.Payment{Resource: "payment", ID: "tr_other", Status: "paid", PaidAt: "2026-03-01T10:00:00+00:00"}

			rec := notify(fmt.Sprintf("?entry_id=%d", e.ID), "id=tr_other")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /api/v1/methods", func() {
		It("lists the profile's methods", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/methods?currency=EUR", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("iDEAL"))
		})
	})
})
