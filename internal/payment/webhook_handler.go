package payment

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/transport"
)

// maxWebhookBody bounds the notification body; deliveries carry only
// "id=<transaction_id>".
const maxWebhookBody = 1024

type WebhookHandler struct {
	*transport.BaseHandler
	Service *Service
}

func NewWebhookHandler(service *Service, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

// HandleNotification handles POST /webhooks/mollie?entry_id=. The
// provider retries on any non-2xx, so only notifications that can never
// succeed return an error status; a reconciliation that produced no
// change is still a 200.
func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(r.URL.Query().Get("entry_id"), 10, 64)
	if err != nil {
		h.Logger.Error("webhook missing or invalid entry_id", "error", err)
		h.HandleError(w, errors.ErrInvalidRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("unable to read webhook body", "entry_id", entryID, "error", err)
		h.HandleError(w, errors.ErrInvalidRequest)
		return
	}

	action, err := h.Service.ProcessNotification(r.Context(), entryID, body)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if action == nil {
		h.WriteJSON(w, http.StatusOK, map[string]string{"status": "no_change"})
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "processed",
		"action": action,
	})
}
