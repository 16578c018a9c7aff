package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewPriceRejectsNegative(t *testing.T) {
	_, err := NewPrice(decimal.NewFromInt(-1))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewPriceFromString(t *testing.T) {
	p, err := NewPriceFromString("49.99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "$49.99" {
		t.Errorf("String() = %q, want $49.99", p.String())
	}

	if _, err := NewPriceFromString("not-a-number"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for garbage input, got %v", err)
	}
	if _, err := NewPriceFromString("-5"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for negative input, got %v", err)
	}
}

func TestPriceSubNeverGoesNegative(t *testing.T) {
	a, _ := NewPriceFromString("10")
	b, _ := NewPriceFromString("15")

	if _, err := b.Sub(a); err != nil {
		t.Errorf("15-10 should succeed, got %v", err)
	}
	if _, err := a.Sub(b); !errors.Is(err, ErrValidation) {
		t.Errorf("10-15 should fail with ErrValidation, got %v", err)
	}
}

func TestPriceArithmetic(t *testing.T) {
	a, _ := NewPriceFromString("10.50")
	b, _ := NewPriceFromString("4.50")

	if got := a.Add(b); !got.Amount().Equal(decimal.NewFromInt(15)) {
		t.Errorf("Add = %s, want 15", got.Amount())
	}
	if _, err := a.Div(decimal.Zero); !errors.Is(err, ErrValidation) {
		t.Errorf("division by zero should fail with ErrValidation, got %v", err)
	}
	if !b.LessThan(a) || !a.GreaterThan(b) {
		t.Error("comparison methods disagree")
	}
}

func TestDiscountPercentage(t *testing.T) {
	promo, _ := NewPriceFromString("75")
	original, _ := NewPriceFromString("100")

	got := promo.DiscountPercentage(original)
	if !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("DiscountPercentage = %s, want 25", got)
	}

	zero, _ := NewPriceFromString("0")
	if !promo.DiscountPercentage(zero).IsZero() {
		t.Error("discount against zero original should be 0")
	}
}
