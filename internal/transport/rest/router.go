package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/formbridge/mollie-gateway/internal/mollie"
	"github.com/formbridge/mollie-gateway/internal/payment"
	"github.com/formbridge/mollie-gateway/internal/transport/middleware"
)

// RegisterAllRoutes wires the HTTP surface: the provider-facing webhook
// and return endpoints at the root (their URLs are registered with the
// provider and must stay stable), the host-facing API under /api/v1.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, connectionHandler *mollie.ConnectionHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Provider-facing endpoints. The webhook body is a bare
	// "id=<transaction_id>" form, not JSON.
	if webhookHandler != nil {
		router.Post("/webhooks/mollie", webhookHandler.HandleNotification)
	}
	if paymentHandler != nil {
		router.Get("/payments/return", paymentHandler.HandleReturn)
	}
	if connectionHandler != nil {
		router.Get("/oauth/callback", connectionHandler.HandleCallback)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if paymentHandler != nil {
			r.Post("/forms/{form_id}/submissions", paymentHandler.SubmitForm)
			r.Get("/methods", paymentHandler.ListMethods)
		}

		if connectionHandler != nil {
			r.Get("/mollie/connect", connectionHandler.StartConnect)
			r.Get("/mollie/connection", connectionHandler.Status)
			r.Delete("/mollie/connection", connectionHandler.Disconnect)
		}
	})
}
