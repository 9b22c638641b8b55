package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

// SubmissionRequest carries the payment-relevant part of one form
// submission from the host pipeline.
type SubmissionRequest struct {
	Currency    string            `json:"currency"`
	FieldValues map[string]string `json:"field_values"`
	SubmissionData
}

func (r *SubmissionRequest) Validate() error {
	if r.Currency == "" {
		return errors.NewValidationError("currency is required", errors.ErrCodeValidationFailed)
	}
	if r.PaymentAmount <= 0 {
		return errors.NewValidationError("payment amount must be positive", errors.ErrCodeValidationFailed)
	}
	if len(r.LineItems) == 0 {
		return errors.NewValidationError("at least one line item is required", errors.ErrCodeValidationFailed)
	}
	return nil
}

// SubmissionResponse reports the outcome of a paid submission. When the
// payment needs off-site completion the entry is persisted as
// Processing and RedirectURL points at the hosted checkout.
type SubmissionResponse struct {
	EntryID       int64  `json:"entry_id"`
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
}

// SubmitForm handles POST /api/v1/forms/{form_id}/submissions: the
// authorize, persist, capture sequence of a paid submission. A rejected
// authorization fails validation and persists nothing.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(chi.URLParam(r, "form_id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid form id", errors.ErrCodeValidationFailed))
		return
	}

	var req SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("SubmitForm: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	ctx := r.Context()

	f, err := h.Service.forms.GetForm(ctx, formID)
	if err != nil {
		h.HandleServiceError(w, errors.ErrFormNotFound.WithCause(err))
		return
	}

	fd, err := h.Service.feeds.GetActiveFeed(ctx, formID)
	if err != nil {
		h.HandleServiceError(w, errors.ErrFeedNotFound.WithCause(err))
		return
	}

	e := &entry.Entry{
		FormID:        formID,
		Currency:      req.Currency,
		PaymentAmount: req.PaymentAmount,
		PaymentMethod: req.PaymentMethod,
	}
	if err := e.SetFieldValues(req.FieldValues); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid field values", errors.ErrCodeValidationFailed))
		return
	}

	auth, err := h.Service.Authorize(ctx, fd, &req.SubmissionData, f, e)
	if err != nil {
		h.Logger.Error("SubmitForm: authorization failed", "form_id", formID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	// The entry is persisted only after the provider accepted the
	// payment; Processing until capture settles the outcome.
	e.PaymentStatus = entry.StatusProcessing
	e.TransactionID = auth.Transaction.String()
	if err := h.Service.entries.CreateEntry(ctx, e); err != nil {
		h.Logger.Error("SubmitForm: unable to persist entry", "form_id", formID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	captured, err := h.Service.Capture(ctx, *auth, fd, &req.SubmissionData, f, e)
	if err != nil {
		h.Logger.Error("SubmitForm: capture failed", "entry_id", e.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	resp := SubmissionResponse{EntryID: e.ID}

	if captured.Success {
		if err := h.completeEntry(ctx, e.ID, captured); err != nil {
			h.Logger.Error("SubmitForm: unable to finalize entry", "entry_id", e.ID, "error", err)
			h.HandleServiceError(w, err)
			return
		}
		resp.PaymentStatus = entry.StatusPaid
		resp.TransactionID = captured.TransactionID
		h.WriteJSON(w, http.StatusCreated, resp)
		return
	}

	resp.PaymentStatus = entry.StatusProcessing
	resp.TransactionID = auth.Transaction.String()
	resp.RedirectURL = captured.RedirectURL
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) completeEntry(ctx context.Context, entryID int64, captured *CaptureResult) error {
	if err := h.Service.entries.SetPaymentStatus(ctx, entryID, entry.StatusPaid); err != nil {
		return err
	}
	if err := h.Service.entries.SetTransactionID(ctx, entryID, captured.TransactionID); err != nil {
		return err
	}
	if err := h.Service.entries.SetPaymentAmount(ctx, entryID, captured.Amount); err != nil {
		return err
	}
	if captured.PaymentMethod != "" {
		if err := h.Service.entries.SetPaymentMethod(ctx, entryID, captured.PaymentMethod); err != nil {
			return err
		}
	}
	if captured.CardNumber != "" {
		if err := h.Service.entries.SetCardDetails(ctx, entryID, captured.CardNumber, captured.CardLabel); err != nil {
			return err
		}
	}
	return nil
}

// HandleReturn handles GET /payments/return?mollie_result=. The payer
// lands here after the provider's hosted checkout.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("mollie_result")
	if param == "" {
		h.HandleError(w, errors.NewValidationError("missing mollie_result parameter", errors.ErrCodeValidationFailed))
		return
	}

	confirmation, err := h.Service.ConfirmReturn(r.Context(), param)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, confirmation)
}

// ListMethods handles GET /api/v1/methods?currency=. Display data for
// the host's payment field; an empty list is a valid answer.
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = "EUR"
	}

	methods := h.Service.methods.Methods(r.Context(), currency)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"methods": methods})
}
