package mollie

import (
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/transport"
)

// ConnectionHandler exposes the account connection lifecycle: starting
// the OAuth consent flow, receiving the callback, reporting connection
// status, and disconnecting. These are admin endpoints; payments refuse
// to run until a connection exists.
type ConnectionHandler struct {
	*transport.BaseHandler
	Client      *Client
	RedirectURI string
}

func NewConnectionHandler(client *Client, baseURL string, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		Client:      client,
		RedirectURI: strings.TrimRight(baseURL, "/") + "/oauth/callback",
	}
}

// StartConnect handles GET /api/v1/mollie/connect: returns the consent
// URL for the admin UI to redirect to.
func (h *ConnectionHandler) StartConnect(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"authorize_url": h.Client.AuthorizeURL(h.RedirectURI, state),
	})
}

// HandleCallback handles GET /oauth/callback?code=: the provider
// redirect after consent. A granted code is exchanged and persisted; a
// denied consent arrives as an error parameter instead of a code.
func (h *ConnectionHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if denied := r.URL.Query().Get("error"); denied != "" {
		h.Logger.Error("mollie connection denied", "error", denied)
		h.HandleError(w, errors.NewValidationError("connection was denied", errors.ErrCodeValidationFailed))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.HandleError(w, errors.NewValidationError("missing authorization code", errors.ErrCodeValidationFailed))
		return
	}

	if _, err := h.Client.ExchangeCode(r.Context(), code, h.RedirectURI); err != nil {
		h.Logger.Error("unable to exchange authorization code", "error", err)
		h.HandleServiceError(w, errors.ErrConnectionUnavailable.WithCause(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// Status handles GET /api/v1/mollie/connection: whether a usable
// credential exists, and the connected profiles when it does.
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	if err := h.Client.Initialize(r.Context()); err != nil {
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}

	profiles, err := h.Client.GetProfiles(r.Context())
	if err != nil {
		h.Logger.Error("unable to list profiles", "error", err)
		h.HandleServiceError(w, errors.ErrConnectionUnavailable.WithCause(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"connected": true,
		"profiles":  profiles,
	})
}

// Disconnect handles DELETE /api/v1/mollie/connection: revokes the
// refresh token at the provider and drops the stored credentials.
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.Client.RevokeRefreshToken(r.Context()); err != nil {
		h.Logger.Error("unable to disconnect account", "error", err)
		h.HandleServiceError(w, errors.ErrConnectionUnavailable.WithCause(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
