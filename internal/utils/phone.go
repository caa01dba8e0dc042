package utils // package utils provides small helpers shared across handlers and services

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegions lists the regions tried when a phone number arrives
// without an international prefix.
var defaultRegions = []string{
	"HU",
	"DE",
	"US",
}

// NormalizePhone parses a customer-supplied phone number and returns its
// E.164 form.  Numbers that cannot be parsed for any supported region
// yield an empty string, which callers treat as a validation failure.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	for _, region := range defaultRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
