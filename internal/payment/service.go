package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/form"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
	"github.com/formbridge/mollie-gateway/internal/core/events"
	"github.com/formbridge/mollie-gateway/internal/mollie"
)

// ProviderAPI is the slice of the Mollie client this service consumes.
type ProviderAPI interface {
	Initialize(ctx context.Context) error
	CreatePayment(ctx context.Context, req *mollietypes.CreatePaymentRequest) (*mollietypes.Payment, error)
	CreateOrder(ctx context.Context, req *mollietypes.CreateOrderRequest) (*mollietypes.Payment, error)
	GetPayment(ctx context.Context, id string, testmode bool) (*mollietypes.Payment, error)
	GetOrder(ctx context.Context, id string, testmode bool) (*mollietypes.Payment, error)
	UpdatePayment(ctx context.Context, id string, req *mollietypes.UpdatePaymentRequest) (*mollietypes.Payment, error)
	GetMethods(ctx context.Context, profileID string, testmode bool, currency string) ([]mollietypes.Method, error)
}

// EntryStore exposes the narrow, named field updates this subsystem is
// allowed to make on a host entry. Entries are never overwritten whole.
type EntryStore interface {
	CreateEntry(ctx context.Context, e *entry.Entry) error
	GetEntry(ctx context.Context, id int64) (*entry.Entry, error)
	SetPaymentStatus(ctx context.Context, id int64, status string) error
	SetTransactionID(ctx context.Context, id int64, transactionID string) error
	SetPaymentAmount(ctx context.Context, id int64, amount float64) error
	SetPaymentMethod(ctx context.Context, id int64, method string) error
	SetCardDetails(ctx context.Context, id int64, cardNumber, cardLabel string) error
	AddNote(ctx context.Context, id int64, note string) error
}

type FeedStore interface {
	GetFeed(ctx context.Context, id int64) (*feed.Feed, error)
	GetActiveFeed(ctx context.Context, formID int64) (*feed.Feed, error)
}

type FormStore interface {
	GetForm(ctx context.Context, id int64) (*form.Form, error)
}

// DelayedFeedRunner triggers host feeds that waited for payment
// completion (notifications, integrations). Invocations must be
// idempotent per transaction.
type DelayedFeedRunner interface {
	TriggerDelayedFeeds(ctx context.Context, transactionID string, fd *feed.Feed, e *entry.Entry, f *form.Form) error
}

// ActionLog is the host's idempotency layer for webhook actions. Record
// returns false when the action id was already seen.
type ActionLog interface {
	Record(ctx context.Context, actionID string, entryID int64) (bool, error)
}

type Config struct {
	ProfileID string
	Testmode  bool
	Locale    string
}

// Service implements the payment lifecycle: authorization at submission
// time, capture once the entry is persisted, and webhook reconciliation.
type Service struct {
	api     ProviderAPI
	entries EntryStore
	feeds   FeedStore
	forms   FormStore
	delayed DelayedFeedRunner
	actions ActionLog
	methods *MethodDirectory
	urls    *URLBuilder
	bus     *events.EventBus
	cfg     Config
	logger  *slog.Logger
}

func NewService(
	api ProviderAPI,
	entries EntryStore,
	feeds FeedStore,
	forms FormStore,
	delayed DelayedFeedRunner,
	actions ActionLog,
	methods *MethodDirectory,
	urls *URLBuilder,
	bus *events.EventBus,
	cfg Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		api:     api,
		entries: entries,
		feeds:   feeds,
		forms:   forms,
		delayed: delayed,
		actions: actions,
		methods: methods,
		urls:    urls,
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
	}
}

// paymentDescription builds the charge description shown in the Mollie
// dashboard: "Entry ID: 123, Products: A, B". Entry id 0 (authorization
// time) is omitted; capture refreshes the description once the id is
// known.
func paymentDescription(entryID int64, sub *SubmissionData) string {
	var parts []string
	if entryID != 0 {
		parts = append(parts, fmt.Sprintf("Entry ID: %d", entryID))
	}

	names := make([]string, 0, len(sub.LineItems))
	for _, item := range sub.LineItems {
		names = append(names, item.Name)
	}
	label := "Products"
	if len(sub.LineItems) == 1 {
		label = "Product"
	}
	parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(names, ", ")))

	return strings.Join(parts, ", ")
}

// MethodDirectory resolves payment-method labels through the injected
// (mode, profile)-keyed cache, falling back to the provider.
type MethodDirectory struct {
	api       ProviderAPI
	cache     mollie.MethodsCache
	profileID string
	testmode  bool
	logger    *slog.Logger
}

func NewMethodDirectory(api ProviderAPI, cache mollie.MethodsCache, profileID string, testmode bool, logger *slog.Logger) *MethodDirectory {
	return &MethodDirectory{
		api:       api,
		cache:     cache,
		profileID: profileID,
		testmode:  testmode,
		logger:    logger,
	}
}

func (d *MethodDirectory) mode() string {
	if d.testmode {
		return "test"
	}
	return "live"
}

// Methods returns the enabled methods for the configured profile. An
// empty list is returned on provider failure; method lookups are
// display-only and must never block a payment.
func (d *MethodDirectory) Methods(ctx context.Context, currency string) []mollietypes.Method {
	if d.profileID == "" {
		return nil
	}

	if methods, ok := d.cache.Get(ctx, d.mode(), d.profileID); ok {
		return methods
	}

	methods, err := d.api.GetMethods(ctx, d.profileID, d.testmode, currency)
	if err != nil {
		d.logger.Error("unable to get payment methods", "error", err, "profile_id", d.profileID)
		return nil
	}

	if err := d.cache.Set(ctx, d.mode(), d.profileID, methods); err != nil {
		d.logger.Warn("unable to cache payment methods", "error", err)
	}

	return methods
}

// Label returns the human description of a method id, or the id itself
// when unknown.
func (d *MethodDirectory) Label(ctx context.Context, methodID, currency string) string {
	for _, m := range d.Methods(ctx, currency) {
		if m.ID == methodID {
			return m.Description
		}
	}
	return methodID
}
