package mollie

// Amount is a Mollie monetary value: an ISO currency code plus a string
// value already formatted for that currency (two decimals, or none for
// zero-decimal currencies, never a thousands separator).
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// Address is a billing address attached to an order. All fields except
// StreetAdditional and Region are required by the Orders API.
type Address struct {
	GivenName        string `json:"givenName"`
	FamilyName       string `json:"familyName"`
	StreetAndNumber  string `json:"streetAndNumber"`
	StreetAdditional string `json:"streetAdditional,omitempty"`
	PostalCode       string `json:"postalCode"`
	City             string `json:"city"`
	Region           string `json:"region,omitempty"`
	Country          string `json:"country"`
	Email            string `json:"email"`
}

type Link struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// Links carries the HAL metadata of a payment resource. Presence of the
// refunds or chargebacks collections doubles as a status signal.
type Links struct {
	Checkout    *Link `json:"checkout,omitempty"`
	Refunds     *Link `json:"refunds,omitempty"`
	Chargebacks *Link `json:"chargebacks,omitempty"`
}

// CardDetails holds the card fields Mollie exposes after a card payment:
// the last four digits and the issuing network label.
type CardDetails struct {
	CardNumber string `json:"cardNumber,omitempty"`
	CardLabel  string `json:"cardLabel,omitempty"`
}

type Embedded struct {
	Payments []Payment `json:"payments,omitempty"`
}

// Payment mirrors a Mollie payment or order resource. It is fetched
// fresh at every decision point and never cached for state transitions.
type Payment struct {
	Resource       string            `json:"resource"`
	ID             string            `json:"id"`
	Status         string            `json:"status,omitempty"`
	Method         string            `json:"method,omitempty"`
	Amount         Amount            `json:"amount"`
	AmountRefunded *Amount           `json:"amountRefunded,omitempty"`
	Description    string            `json:"description,omitempty"`
	PaidAt         string            `json:"paidAt,omitempty"`
	Details        *CardDetails      `json:"details,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	OrderNumber    string            `json:"orderNumber,omitempty"`
	Links          Links             `json:"_links,omitempty"`
	Embedded       *Embedded         `json:"_embedded,omitempty"`
}

// IsOrder reports whether the resource came from the Orders API.
func (p *Payment) IsOrder() bool {
	return p.Resource == "order"
}

// EmbeddedPaymentID returns the id of the first payment nested in an
// order resource, or "".
func (p *Payment) EmbeddedPaymentID() string {
	if p.Embedded == nil || len(p.Embedded.Payments) == 0 {
		return ""
	}
	return p.Embedded.Payments[0].ID
}

// CheckoutURL returns the hosted checkout page link, or "".
func (p *Payment) CheckoutURL() string {
	if p.Links.Checkout == nil {
		return ""
	}
	return p.Links.Checkout.Href
}

// Method is one enabled payment method of a website profile.
type Method struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderLine is one line of an Orders API request. This integration does
// not compute tax, so VAT fields are zero-rate placeholders.
type OrderLine struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	TotalAmount Amount `json:"totalAmount"`
	VATRate     string `json:"vatRate"`
	VATAmount   Amount `json:"vatAmount"`
}

// CreatePaymentRequest is the Payments API creation payload.
type CreatePaymentRequest struct {
	Amount         Amount   `json:"amount"`
	Locale         string   `json:"locale,omitempty"`
	Description    string   `json:"description,omitempty"`
	RedirectURL    string   `json:"redirectUrl,omitempty"`
	WebhookURL     string   `json:"webhookUrl,omitempty"`
	ProfileID      string   `json:"profileId,omitempty"`
	Testmode       bool     `json:"testmode,omitempty"`
	Method         string   `json:"method,omitempty"`
	BillingEmail   string   `json:"billingEmail,omitempty"`
	CardToken      string   `json:"cardToken,omitempty"`
	BillingAddress *Address `json:"billingAddress,omitempty"`
}

// OrderPaymentParams nests payment-specific parameters inside an Orders
// API request.
type OrderPaymentParams struct {
	CardToken string `json:"cardToken,omitempty"`
}

// CreateOrderRequest is the Orders API creation payload. It has no plain
// description or billingEmail; those belong to the Payments API only.
type CreateOrderRequest struct {
	Amount         Amount              `json:"amount"`
	OrderNumber    string              `json:"orderNumber"`
	Locale         string              `json:"locale,omitempty"`
	RedirectURL    string              `json:"redirectUrl,omitempty"`
	WebhookURL     string              `json:"webhookUrl,omitempty"`
	ProfileID      string              `json:"profileId,omitempty"`
	Testmode       bool                `json:"testmode,omitempty"`
	Method         string              `json:"method,omitempty"`
	BillingAddress *Address            `json:"billingAddress"`
	Lines          []OrderLine         `json:"lines"`
	Payment        *OrderPaymentParams `json:"payment,omitempty"`
}

// UpdatePaymentRequest patches the host linkage onto an existing payment
// or order. Redirect and webhook URLs are always sent, so clearing them
// (empty string) reaches the provider too. OrderNumber is accepted only
// on order patches; notifications for an order resolve to an entry by
// matching the order number against the entry id.
type UpdatePaymentRequest struct {
	Description string            `json:"description,omitempty"`
	OrderNumber string            `json:"orderNumber,omitempty"`
	RedirectURL string            `json:"redirectUrl"`
	WebhookURL  string            `json:"webhookUrl"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Testmode    bool              `json:"testmode,omitempty"`
}
