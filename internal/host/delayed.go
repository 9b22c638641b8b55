package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/form"
	"github.com/formbridge/mollie-gateway/internal/core/events"
)

// EntryNoter is the slice of the entry store the runner needs.
type EntryNoter interface {
	AddNote(ctx context.Context, id int64, note string) error
}

// DedupLog guards against repeated triggers for one transaction.
type DedupLog interface {
	Record(ctx context.Context, actionID string, entryID int64) (bool, error)
}

// FeedRunner fulfills host feeds that were configured to wait for
// payment completion (notifications, third-party integrations). The
// actual integrations subscribe to the published event; the runner owns
// ordering and once-per-transaction semantics.
type FeedRunner struct {
	notes  EntryNoter
	dedup  DedupLog
	bus    *events.EventBus
	logger *slog.Logger
}

func NewFeedRunner(notes EntryNoter, dedup DedupLog, bus *events.EventBus, logger *slog.Logger) *FeedRunner {
	return &FeedRunner{
		notes:  notes,
		dedup:  dedup,
		bus:    bus,
		logger: logger,
	}
}

// TriggerDelayedFeeds fires the delayed fulfillment for one completed
// payment. Both the webhook and the return page call this, whichever
// lands first wins; the dedup log makes the second call a no-op.
func (r *FeedRunner) TriggerDelayedFeeds(ctx context.Context, transactionID string, fd *feed.Feed, e *entry.Entry, f *form.Form) error {
	fresh, err := r.dedup.Record(ctx, "delayed_feeds_"+transactionID, e.ID)
	if err != nil {
		return fmt.Errorf("record delayed feed trigger: %w", err)
	}
	if !fresh {
		r.logger.Debug("delayed feeds already triggered", "transaction_id", transactionID, "entry_id", e.ID)
		return nil
	}

	event := events.NewDelayedFeedsEvent(transactionID, e.ID, fd.ID, f.ID)
	if err := r.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish delayed feeds event: %w", err)
	}

	note := fmt.Sprintf("Delayed feeds have been triggered. Transaction Id: %s.", transactionID)
	if err := r.notes.AddNote(ctx, e.ID, note); err != nil {
		r.logger.Error("unable to record delayed feed note", "entry_id", e.ID, "error", err)
	}

	r.logger.Info("delayed feeds triggered",
		"transaction_id", transactionID,
		"entry_id", e.ID,
		"feed_id", fd.ID)

	return nil
}
