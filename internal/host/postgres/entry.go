package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
)

// EntryRepository persists host form entries. Payment state updates are
// per-column; a whole-row save would race with the host's own writes to
// the same entry.
type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) CreateEntry(ctx context.Context, e *entry.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EntryRepository) GetEntry(ctx context.Context, id int64) (*entry.Entry, error) {
	var e entry.Entry
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepository) SetPaymentStatus(ctx context.Context, id int64, status string) error {
	return r.updateColumn(ctx, id, "payment_status", status)
}

func (r *EntryRepository) SetTransactionID(ctx context.Context, id int64, transactionID string) error {
	return r.updateColumn(ctx, id, "transaction_id", transactionID)
}

func (r *EntryRepository) SetPaymentAmount(ctx context.Context, id int64, amount float64) error {
	return r.updateColumn(ctx, id, "payment_amount", amount)
}

func (r *EntryRepository) SetPaymentMethod(ctx context.Context, id int64, method string) error {
	return r.updateColumn(ctx, id, "payment_method", method)
}

func (r *EntryRepository) SetCardDetails(ctx context.Context, id int64, cardNumber, cardLabel string) error {
	return r.db.WithContext(ctx).Model(&entry.Entry{}).Where("id = ?", id).Updates(map[string]interface{}{
		"card_number": cardNumber,
		"card_label":  cardLabel,
	}).Error
}

func (r *EntryRepository) AddNote(ctx context.Context, id int64, note string) error {
	return r.db.WithContext(ctx).Create(&entry.Note{EntryID: id, Note: note}).Error
}

// GetNotes returns an entry's audit notes, newest first.
func (r *EntryRepository) GetNotes(ctx context.Context, id int64) ([]entry.Note, error) {
	var notes []entry.Note
	err := r.db.WithContext(ctx).Where("entry_id = ?", id).Order("created_at DESC").Find(&notes).Error
	return notes, err
}

func (r *EntryRepository) updateColumn(ctx context.Context, id int64, column string, value interface{}) error {
	return r.db.WithContext(ctx).Model(&entry.Entry{}).Where("id = ?", id).UpdateColumn(column, value).Error
}
