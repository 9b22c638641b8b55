package feed

import "encoding/json"

// BillingFields maps billing-address parts to form field ids. All of the
// required parts must resolve to non-empty values before an address is
// attached to a payment; partial addresses are never sent.
type BillingFields struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Email     string `json:"email"`
}

// Feed binds a form to the Mollie settings used when that form is
// submitted. Owned by the host's admin settings; read-only here.
type Feed struct {
	ID                 int64           `gorm:"primaryKey"`
	FormID             int64           `gorm:"column:form_id;not null;index"`
	Name               string          `gorm:"column:name"`
	Active             bool            `gorm:"column:active;default:true"`
	TransactionType    string          `gorm:"column:transaction_type;default:product"`
	PaymentAmountField string          `gorm:"column:payment_amount_field"`
	DelayedFeeds       bool            `gorm:"column:delayed_feeds;default:false"`
	BillingFieldsRaw   json.RawMessage `gorm:"column:billing_fields;type:jsonb"`
}

func (Feed) TableName() string {
	return "feeds"
}

func (f *Feed) BillingFields() BillingFields {
	var bf BillingFields
	if len(f.BillingFieldsRaw) > 0 {
		_ = json.Unmarshal(f.BillingFieldsRaw, &bf)
	}
	return bf
}

func (f *Feed) SetBillingFields(bf BillingFields) error {
	raw, err := json.Marshal(bf)
	if err != nil {
		return err
	}
	f.BillingFieldsRaw = raw
	return nil
}
