package payment

import "strings"

// transactionIDSeparator joins the nested payment id and the order id
// when a payment was created through the Orders API. The joined form is
// what the host stores on the entry; it must round-trip through
// ParseTransactionRef on every later lookup.
const transactionIDSeparator = "||"

// TransactionRef identifies a provider transaction: either a plain
// payment, or a payment nested inside an order. Once assigned by the
// authorization step it is immutable for the lifetime of the entry.
type TransactionRef struct {
	PaymentID string
	OrderID   string
}

// ParseTransactionRef splits a stored transaction id. An id without the
// separator is a plain payment reference with an empty order id.
func ParseTransactionRef(stored string) TransactionRef {
	paymentID, orderID, _ := strings.Cut(stored, transactionIDSeparator)
	return TransactionRef{PaymentID: paymentID, OrderID: orderID}
}

// String encodes the reference in the stored form.
func (r TransactionRef) String() string {
	if r.OrderID == "" {
		return r.PaymentID
	}
	return r.PaymentID + transactionIDSeparator + r.OrderID
}

// IsOrder reports whether the reference carries an order id.
func (r TransactionRef) IsOrder() bool {
	return strings.HasPrefix(r.OrderID, "ord_")
}
