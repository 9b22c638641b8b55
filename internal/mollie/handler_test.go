package mollie

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ConnectionHandler", func() {
	var (
		server  *httptest.Server
		mux     *http.ServeMux
		store   *MemoryTokenStore
		handler *ConnectionHandler
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		store = NewMemoryTokenStore(nil)
		client := NewClient(Config{
			APIBaseURL:   server.URL,
			ClientID:     "app_test",
			ClientSecret: "secret_test",
		}, store, logger)

		handler = NewConnectionHandler(client, "https://forms.example.org/", logger)
	})

	Describe("StartConnect", func() {
		It("returns the consent URL with the callback redirect", func() {
			rec := httptest.NewRecorder()
			handler.StartConnect(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mollie/connect", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp map[string]string
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())

			authorizeURL, err := url.Parse(resp["authorize_url"])
			Expect(err).NotTo(HaveOccurred())
			Expect(authorizeURL.Host).To(Equal("my.mollie.com"))
			Expect(authorizeURL.Query().Get("client_id")).To(Equal("app_test"))
			Expect(authorizeURL.Query().Get("redirect_uri")).To(Equal("https://forms.example.org/oauth/callback"))
			Expect(authorizeURL.Query().Get("response_type")).To(Equal("code"))
		})
	})

	Describe("HandleCallback", func() {
		It("connects the account from a granted code", func() {
			mux.HandleFunc("/oauth2/tokens", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.FormValue("code")).To(Equal("auth_code_1"))
				Expect(r.FormValue("redirect_uri")).To(Equal("https://forms.example.org/oauth/callback"))
				json.NewEncoder(w).Encode(Token{AccessToken: "access_1", RefreshToken: "refresh_1", ExpiresIn: 3600})
			})

			rec := httptest.NewRecorder()
			handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=auth_code_1", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("connected"))

			saved, err := store.Load(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.RefreshToken).To(Equal("refresh_1"))
		})

		It("rejects a denied consent", func() {
			rec := httptest.NewRecorder()
			handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback?error=access_denied", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a callback without a code", func() {
			rec := httptest.NewRecorder()
			handler.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Status", func() {
		It("reports disconnected before a token exists", func() {
			rec := httptest.NewRecorder()
			handler.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mollie/connection", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"connected":false`))
		})

		It("reports the connected profiles", func() {
			mux.HandleFunc("/v2/profiles", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"_embedded":{"profiles":[{"id":"pfl_1","name":"Test Shop"}]}}`))
			})
			Expect(store.Save(nil, &Token{
				AccessToken:  "access_1",
				RefreshToken: "refresh_1",
				ExpiresIn:    3600,
				TimeCreated:  time.Now().Unix(),
			})).To(Succeed())

			rec := httptest.NewRecorder()
			handler.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mollie/connection", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"connected":true`))
			Expect(rec.Body.String()).To(ContainSubstring("pfl_1"))
		})
	})

	Describe("Disconnect", func() {
		It("revokes the token and clears the store", func() {
			mux.HandleFunc("/oauth2/tokens", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodDelete))
				w.WriteHeader(http.StatusNoContent)
			})
			Expect(store.Save(nil, &Token{
				AccessToken:  "access_1",
				RefreshToken: "refresh_1",
				ExpiresIn:    3600,
				TimeCreated:  time.Now().Unix(),
			})).To(Succeed())

			rec := httptest.NewRecorder()
			handler.Disconnect(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/mollie/connection", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))

			saved, err := store.Load(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(BeNil())
		})
	})
})
