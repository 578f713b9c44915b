package validation

import (
	"errors"
	"testing"

	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "count", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePositive(%d) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
			if err != nil && !errors.Is(err, aserrors.ErrInvalidConfiguration) {
				t.Error("validation error should wrap ErrInvalidConfiguration")
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("test", "offset", 0); err != nil {
		t.Errorf("ValidateNonNegative(0) = %v, want nil", err)
	}
	if err := ValidateNonNegative("test", "offset", 7); err != nil {
		t.Errorf("ValidateNonNegative(7) = %v, want nil", err)
	}
	if err := ValidateNonNegative("test", "offset", -1); err == nil {
		t.Error("ValidateNonNegative(-1) = nil, want error")
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("test", "sink", struct{}{}); err != nil {
		t.Errorf("ValidateNotNil(non-nil) = %v, want nil", err)
	}
	if err := ValidateNotNil("test", "sink", nil); err == nil {
		t.Error("ValidateNotNil(nil) = nil, want error")
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "key", "queue:jobs"); err != nil {
		t.Errorf("ValidateNotEmpty(non-empty) = %v, want nil", err)
	}
	if err := ValidateNotEmpty("test", "key", ""); err == nil {
		t.Error("ValidateNotEmpty(empty) = nil, want error")
	}
}
