package types

import (
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(4500), 4500, "usd", "$45.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"GBP", GBP(9900), 9900, "gbp", "£99.00"},
		{"INR", INR(350000), 350000, "inr", "₹3500.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
		{"Zero INR", Zero("INR"), 0, "inr", "₹0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USD(100).Add(USD(200)) }, USD(300)},
		{"Subtract", func() Money { return USD(500).Subtract(USD(200)) }, USD(300)},
		{"Multiply", func() Money { return USD(4500).Multiply(10) }, USD(45000)},
		{"Multiply by zero", func() Money { return USD(4500).Multiply(0) }, USD(0)},
		{"Sum", func() Money { return Sum(USD(100), USD(200), USD(300)) }, USD(600)},
		{"Sum empty", func() Money { return Sum() }, Zero("usd")},
		{"Nightly total", func() Money {
			return USD(4500).Multiply(3).Add(USD(4500).Multiply(7))
		}, USD(45000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = USD(100).Add(EUR(100))
}

func TestMoneySameCurrency(t *testing.T) {
	if !USD(100).SameCurrency(USD(200)) {
		t.Error("same currency reported as different")
	}
	if USD(100).SameCurrency(INR(100)) {
		t.Error("different currencies reported as same")
	}
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", USD(100), USD(100), false, false, true},
		{"Less", USD(50), USD(100), true, false, false},
		{"Greater", USD(200), USD(100), false, true, false},
		{"Zero equal", USD(0), Zero("usd"), false, false, true},
		{"Negative less", USD(-100), USD(100), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		want  string
	}{
		{"whole", USD(4500), "45.00"},
		{"with minor", USD(4599), "45.99"},
		{"small minor", USD(5), "0.05"},
		{"negative", USD(-4500), "-45.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.want {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMoneySignChecks(t *testing.T) {
	if !USD(0).IsZero() || USD(1).IsZero() {
		t.Error("IsZero misreported")
	}
	if !USD(1).IsPositive() || USD(-1).IsPositive() {
		t.Error("IsPositive misreported")
	}
	if !USD(-1).IsNegative() || USD(1).IsNegative() {
		t.Error("IsNegative misreported")
	}
}
