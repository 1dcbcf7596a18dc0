package internal

import "testing"

func TestTokenIDRoundTrip(t *testing.T) {
	id, err := NewTokenID()
	if err != nil {
		t.Fatalf("NewTokenID failed: %v", err)
	}

	parsed, err := ParseTokenID(id.String())
	if err != nil {
		t.Fatalf("ParseTokenID failed: %v", err)
	}
	if parsed != id {
		t.Fatal("parsed token id does not match original")
	}
}

func TestParseTokenIDRejectsGarbage(t *testing.T) {
	if _, err := ParseTokenID("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid encoding")
	}
	if _, err := ParseTokenID("c2hvcnQ"); err == nil {
		t.Fatal("expected error for wrong size")
	}
}

func TestNewOTP(t *testing.T) {
	otp, err := NewOTP(6)
	if err != nil {
		t.Fatalf("NewOTP failed: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("expected 6 digits, got %d", len(otp))
	}
	if !IsNumeric(otp) {
		t.Fatalf("expected numeric otp, got %q", otp)
	}

	if _, err := NewOTP(3); err == nil {
		t.Fatal("expected error for too-short otp")
	}
	if _, err := NewOTP(11); err == nil {
		t.Fatal("expected error for too-long otp")
	}
}

func TestIsNumeric(t *testing.T) {
	cases := map[string]bool{
		"123456": true,
		"":       false,
		"12a456": false,
		"000000": true,
		" 12345": false,
	}
	for in, want := range cases {
		if got := IsNumeric(in); got != want {
			t.Errorf("IsNumeric(%q) = %v, want %v", in, got, want)
		}
	}
}
