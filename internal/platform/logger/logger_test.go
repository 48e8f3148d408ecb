package logger

import "testing"

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")
	if !redactionOn() {
		t.Skip("redaction disabled by environment")
	}

	out := sanitizeKVs([]interface{}{
		"email", "learner@example.com",
		"payment_id", "pay_123",
		"status", "captured",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("unexpected length: got=%d want=7", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("email not redacted: %v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || len(hashed) != len("hash:")+12 {
		t.Fatalf("payment_id not hashed: %v", out[3])
	}
	if out[5] != "captured" {
		t.Fatalf("plain value altered: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key dropped: %v", out[6])
	}
}

func TestSanitizeValueNestedMap(t *testing.T) {
	got := sanitizeValue("notes", map[string]interface{}{
		"gst_number": "29ABCDE1234F1Z5",
		"region":     "INDIA",
	})
	m, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["gst_number"] != "[REDACTED]" {
		t.Fatalf("nested gst_number not redacted: %v", m["gst_number"])
	}
	if m["region"] != "INDIA" {
		t.Fatalf("nested region altered: %v", m["region"])
	}
}
