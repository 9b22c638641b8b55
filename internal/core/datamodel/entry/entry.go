package entry

import (
	"encoding/json"
	"time"
)

// Payment status vocabulary for a form entry. Written by the capture and
// webhook reconciliation steps, never by the authorization step directly.
const (
	StatusProcessing = "Processing"
	StatusPending    = "Pending"
	StatusPaid       = "Paid"
	StatusFailed     = "Failed"
	StatusRefunded   = "Refunded"
	StatusCancelled  = "Cancelled"
	StatusReversed   = "Reversed"
	StatusExpired    = "Expired"
)

// Entry is one form submission recorded by the host platform. Payment
// state lives in dedicated columns; the raw submitted field values are
// kept as a JSON document keyed by field id.
type Entry struct {
	ID            int64           `gorm:"primaryKey"`
	FormID        int64           `gorm:"column:form_id;not null"`
	Currency      string          `gorm:"column:currency;not null"`
	PaymentStatus string          `gorm:"column:payment_status"`
	PaymentAmount float64         `gorm:"column:payment_amount"`
	PaymentMethod string          `gorm:"column:payment_method"`
	TransactionID string          `gorm:"column:transaction_id;index"`
	CardNumber    string          `gorm:"column:card_number"`
	CardLabel     string          `gorm:"column:card_label"`
	FieldValues   json.RawMessage `gorm:"column:field_values;type:jsonb"`
	CreatedAt     time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Entry) TableName() string {
	return "entries"
}

// FieldValue returns the submitted value for a form field id, or "".
func (e *Entry) FieldValue(fieldID string) string {
	if len(e.FieldValues) == 0 || fieldID == "" {
		return ""
	}
	var values map[string]string
	if err := json.Unmarshal(e.FieldValues, &values); err != nil {
		return ""
	}
	return values[fieldID]
}

// SetFieldValues encodes the submitted values document.
func (e *Entry) SetFieldValues(values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	e.FieldValues = raw
	return nil
}

// Note is an audit line attached to an entry, e.g. partial-refund
// bookkeeping from webhook reconciliation.
type Note struct {
	ID        int64     `gorm:"primaryKey"`
	EntryID   int64     `gorm:"column:entry_id;not null;index"`
	Note      string    `gorm:"column:note;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Note) TableName() string {
	return "entry_notes"
}
