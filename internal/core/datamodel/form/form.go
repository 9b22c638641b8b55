package form

import (
	"encoding/json"
	"time"
)

// Field describes one input of a form definition, enough to resolve
// billing-address mappings and the payment-method field.
type Field struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Form is a host-side form definition. The field list is stored as a
// JSON document next to the form row.
type Form struct {
	ID        int64           `gorm:"primaryKey"`
	Title     string          `gorm:"column:title;not null"`
	FieldsRaw json.RawMessage `gorm:"column:fields;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Form) TableName() string {
	return "forms"
}

func (f *Form) Fields() []Field {
	var fields []Field
	if len(f.FieldsRaw) > 0 {
		_ = json.Unmarshal(f.FieldsRaw, &fields)
	}
	return fields
}
