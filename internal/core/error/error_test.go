package errx

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapStore(cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should match with errors.Is")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("expected AppError")
	}
	if appErr.Status != http.StatusInternalServerError {
		t.Errorf("unexpected status %d", appErr.Status)
	}
	if appErr.Message != StoreErrorMessage {
		t.Errorf("unexpected message %q", appErr.Message)
	}

	if WrapStore(nil) != nil {
		t.Error("wrapping nil should yield nil")
	}
}

func TestInsufficientFundsMessage(t *testing.T) {
	err := InsufficientFunds(12500, 1300)

	if !errors.Is(err, ErrInsufficientFunds) {
		t.Error("expected ErrInsufficientFunds sentinel")
	}
	if !strings.Contains(err.Message, "12,500") || !strings.Contains(err.Message, "1,300") {
		t.Errorf("message should show grouped amounts, got %q", err.Message)
	}
}

func TestIsBusiness(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"product not found", ProductNotFound("x"), true},
		{"product disabled", ProductDisabled("VIP"), true},
		{"shop disabled", ShopDisabled(), true},
		{"insufficient funds", InsufficientFunds(10, 5), true},
		{"store failure", WrapStore(errors.New("io")), false},
		{"plain error", errors.New("whatever"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBusiness(tc.err); got != tc.want {
				t.Errorf("IsBusiness = %v, want %v", got, tc.want)
			}
		})
	}
}
