package payment

// LineItem is one purchasable line of a submission.
type LineItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	IsShipping  bool    `json:"is_shipping,omitempty"`
}

// Discount is a negative-amount line. Unit prices are given as positive
// numbers; the sign is applied when the order lines are built.
type Discount struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// SubmissionData is the payment-relevant slice of one form submission,
// computed by the host pipeline before authorization.
type SubmissionData struct {
	PaymentAmount float64    `json:"payment_amount"`
	Email         string     `json:"email,omitempty"`
	LineItems     []LineItem `json:"line_items"`
	Discounts     []Discount `json:"discounts,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	CardToken     string     `json:"card_token,omitempty"`
}

// AuthorizationResult is passed by value from the authorization step to
// the capture step; every cross-step datum has a named field.
type AuthorizationResult struct {
	Authorized     bool
	PaymentPending bool
	Transaction    TransactionRef
}

// CaptureResult reports the outcome of the capture step. When the
// payment still needs off-site completion, Success is false and
// RedirectURL carries the hosted checkout page.
type CaptureResult struct {
	Success       bool
	TransactionID string
	Amount        float64
	PaymentMethod string
	CardNumber    string
	CardLabel     string
	RedirectURL   string
}

// Action types consumed by the host's notification dispatcher.
const (
	ActionCompletePayment   = "complete_payment"
	ActionAddPendingPayment = "add_pending_payment"
	ActionFailPayment       = "fail_payment"
	ActionVoidAuthorization = "void_authorization"
	ActionRefundPayment     = "refund_payment"
)

// Action is the result of webhook reconciliation: one idempotent status
// change for an entry. ID is synthesized as {transaction_id}_{type},
// with the amount appended for refunds so each distinct partial refund
// stays distinguishable. Constructed, dispatched, and discarded; never
// persisted by this subsystem.
type Action struct {
	ID              string `json:"id"`
	EntryID         int64  `json:"entry_id"`
	TransactionID   string `json:"transaction_id"`
	TransactionType string `json:"transaction_type"`
	Amount          string `json:"amount"`
	AmountFormatted string `json:"amount_formatted,omitempty"`
	PaymentMethod   string `json:"payment_method"`
	PaymentStatus   string `json:"payment_status"`
	Type            string `json:"type"`
	Note            string `json:"note,omitempty"`
}
