package intake

import "testing"

func TestExtractFieldsAlternateKeys(t *testing.T) {
	payload := map[string]interface{}{
		"full_name":    "Asha Verma",
		"phone_number": "98765 43210",
		"email_address": "asha@example.com",
		"organization": "Verma Traders",
	}

	fields := ExtractFields(payload)

	if fields.Name != "Asha Verma" {
		t.Fatalf("expected name from full_name, got %q", fields.Name)
	}
	if fields.Phone != "98765 43210" {
		t.Fatalf("expected phone from phone_number, got %q", fields.Phone)
	}
	if fields.Email != "asha@example.com" {
		t.Fatalf("expected email from email_address, got %q", fields.Email)
	}
	if fields.Company != "Verma Traders" {
		t.Fatalf("expected company from organization, got %q", fields.Company)
	}
}

func TestExtractFieldsPrefersEarlierKeys(t *testing.T) {
	payload := map[string]interface{}{
		"name":         "Primary",
		"full_name":    "Secondary",
		"phone":        "111",
		"phone_number": "222",
	}

	fields := ExtractFields(payload)

	if fields.Name != "Primary" {
		t.Fatalf("expected name key to win over full_name, got %q", fields.Name)
	}
	if fields.Phone != "111" {
		t.Fatalf("expected phone key to win over phone_number, got %q", fields.Phone)
	}
}

func TestExtractFieldsSkipsEmptyAlternates(t *testing.T) {
	payload := map[string]interface{}{
		"name":      "   ",
		"full_name": "Fallback Name",
	}

	fields := ExtractFields(payload)

	if fields.Name != "Fallback Name" {
		t.Fatalf("expected blank name to fall through to full_name, got %q", fields.Name)
	}
}

func TestExtractFieldsNumericPhone(t *testing.T) {
	payload := map[string]interface{}{
		"name":  "Numeric",
		"phone": float64(9876543210),
	}

	fields := ExtractFields(payload)

	if fields.Phone != "9876543210" {
		t.Fatalf("expected numeric phone coerced to string, got %q", fields.Phone)
	}
}

func TestExtractFieldsMissingEverything(t *testing.T) {
	fields := ExtractFields(map[string]interface{}{"unrelated": "value"})

	if fields.Name != "" || fields.Phone != "" || fields.Email != "" || fields.Company != "" {
		t.Fatalf("expected empty fields, got %+v", fields)
	}
}
