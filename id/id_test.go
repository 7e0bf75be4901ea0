package id_test

import (
	"strings"
	"testing"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ReceiptID", id.NewReceiptID, "rcpt_"},
		{"PayoutID", id.NewPayoutID, "pay_"},
		{"EventID", id.NewEventID, "evt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixReceipt)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixReceipt {
		t.Errorf("expected prefix %q, got %q", id.PrefixReceipt, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"ReceiptID", id.NewReceiptID, id.ParseReceiptID},
		{"PayoutID", id.NewPayoutID, id.ParsePayoutID},
		{"EventID", id.NewEventID, id.ParseEventID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	receipt := id.NewReceiptID()
	if _, err := id.ParsePayoutID(receipt.String()); err == nil {
		t.Error("expected error parsing receipt ID as payout ID")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{"", "not-a-typeid", "rcpt_", "_01h2xcejqtf2nbrexx3vqjhp41"}
	for _, s := range tests {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewReceiptID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil should be nil")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil string: got %q, want empty", id.Nil.String())
	}

	v, err := id.Nil.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != nil {
		t.Errorf("Nil Value: got %v, want nil", v)
	}
}
