package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// URLBuilder produces the URLs handed to the provider at capture time:
// the return URL that brings the payer back, and the webhook URL the
// provider notifies on status changes. Return URLs embed an integrity
// hash so the return handler never trusts decoded ids blindly.
type URLBuilder struct {
	baseURL string
	secret  []byte
}

func NewURLBuilder(baseURL, signingSecret string) *URLBuilder {
	return &URLBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(signingSecret),
	}
}

func (b *URLBuilder) sign(idsQuery string) string {
	mac := hmac.New(sha256.New, b.secret)
	mac.Write([]byte(idsQuery))
	return hex.EncodeToString(mac.Sum(nil))
}

// ReturnURL builds the URL the payer is sent back to after checkout.
// The query carries base64("ids={form}|{feed}|{entry}&hash=H(ids=...)").
// At authorization time the entry id is not yet known and 0 is used;
// capture rebuilds the URL with the real id.
func (b *URLBuilder) ReturnURL(formID, feedID, entryID int64) string {
	idsQuery := fmt.Sprintf("ids=%d|%d|%d", formID, feedID, entryID)
	idsQuery += "&hash=" + b.sign(idsQuery)

	encoded := base64.StdEncoding.EncodeToString([]byte(idsQuery))
	return fmt.Sprintf("%s/payments/return?mollie_result=%s", b.baseURL, url.QueryEscape(encoded))
}

// WebhookURL builds the notification URL for one entry. The entry id
// travels as a query parameter; the notification body carries only the
// transaction id.
func (b *URLBuilder) WebhookURL(entryID int64) string {
	return fmt.Sprintf("%s/webhooks/mollie?entry_id=%d", b.baseURL, entryID)
}

// DecodeReturn verifies and decodes a return-URL parameter. A hash
// mismatch means the input cannot be trusted and is rejected without
// further processing.
func (b *URLBuilder) DecodeReturn(param string) (formID, feedID, entryID int64, err error) {
	raw, err := base64.StdEncoding.DecodeString(param)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("decode return parameter: %w", err)
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parse return parameter: %w", err)
	}

	ids := values.Get("ids")
	hash := values.Get("hash")
	if ids == "" || hash == "" {
		return 0, 0, 0, fmt.Errorf("return parameter is missing ids or hash")
	}

	expected := b.sign("ids=" + ids)
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return 0, 0, 0, fmt.Errorf("return parameter hash mismatch")
	}

	parts := strings.Split(ids, "|")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("return parameter ids malformed")
	}

	if _, err := fmt.Sscanf(ids, "%d|%d|%d", &formID, &feedID, &entryID); err != nil {
		return 0, 0, 0, fmt.Errorf("parse return ids: %w", err)
	}

	return formID, feedID, entryID, nil
}
