package intake

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Form providers disagree on field naming, so each canonical field is
// resolved from an ordered list of alternates. First non-empty value wins.
var (
	nameKeys    = []string{"name", "full_name", "contact_name"}
	phoneKeys   = []string{"phone", "phone_number", "mobile"}
	emailKeys   = []string{"email", "email_address"}
	companyKeys = []string{"company", "company_name", "organization"}
)

// ExtractedLead holds the canonical fields pulled from a raw payload.
type ExtractedLead struct {
	Name    string
	Phone   string
	Email   string
	Company string
}

// ExtractFields resolves the canonical lead fields from an arbitrary
// JSON object.
func ExtractFields(payload map[string]interface{}) ExtractedLead {
	return ExtractedLead{
		Name:    firstNonEmpty(payload, nameKeys),
		Phone:   firstNonEmpty(payload, phoneKeys),
		Email:   firstNonEmpty(payload, emailKeys),
		Company: firstNonEmpty(payload, companyKeys),
	}
}

func firstNonEmpty(payload map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if value := stringValue(payload[key]); value != "" {
			return value
		}
	}
	return ""
}

// stringValue coerces payload values to a trimmed string. Numbers show up
// when providers send phone numbers unquoted.
func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}
