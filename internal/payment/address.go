package payment

import (
	"strings"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/entry"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// countryCodes maps the country names the host's address field offers to
// ISO 3166-1 alpha-2 codes. Values already in code form pass through.
var countryCodes = map[string]string{
	"australia":      "AU",
	"austria":        "AT",
	"belgium":        "BE",
	"canada":         "CA",
	"denmark":        "DK",
	"finland":        "FI",
	"france":         "FR",
	"germany":        "DE",
	"ireland":        "IE",
	"italy":          "IT",
	"japan":          "JP",
	"luxembourg":     "LU",
	"netherlands":    "NL",
	"norway":         "NO",
	"poland":         "PL",
	"portugal":       "PT",
	"spain":          "ES",
	"sweden":         "SE",
	"switzerland":    "CH",
	"united kingdom": "GB",
	"united states":  "US",
}

func countryCode(country string) string {
	trimmed := strings.TrimSpace(country)
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	if code, ok := countryCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	return ""
}

// billingAddress assembles the billing address from the feed's field
// map. Address enrichment is all-or-nothing: if any required part is
// missing or empty, no address is returned and the caller must build a
// plain payment request, byte-identical to one with no mapping at all.
func billingAddress(e *entry.Entry, fd *feed.Feed) *mollietypes.Address {
	bf := fd.BillingFields()
	address := &mollietypes.Address{}

	address.GivenName = e.FieldValue(bf.FirstName)
	if address.GivenName == "" {
		return nil
	}

	address.FamilyName = e.FieldValue(bf.LastName)
	if address.FamilyName == "" {
		return nil
	}

	address.StreetAndNumber = e.FieldValue(bf.Address)
	if address.StreetAndNumber == "" {
		return nil
	}

	address.PostalCode = e.FieldValue(bf.Zip)
	if address.PostalCode == "" {
		return nil
	}

	address.City = e.FieldValue(bf.City)
	if address.City == "" {
		return nil
	}

	address.Country = countryCode(e.FieldValue(bf.Country))
	if address.Country == "" {
		return nil
	}

	address.Email = e.FieldValue(bf.Email)
	if address.Email == "" {
		return nil
	}

	// Optional parts only after the required set is complete.
	address.StreetAdditional = e.FieldValue(bf.Address2)
	address.Region = e.FieldValue(bf.State)

	return address
}
