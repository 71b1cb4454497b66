package validation

import (
	"fmt"
	"testing"
)

func TestValidateUploadSize(t *testing.T) {
	tests := []struct {
		size    int64
		wantErr bool
	}{
		{0, false},
		{1024, false},
		{5242880, false},
		{5242881, true},
		{100 << 20, true},
		{-1, true},
	}
	for _, tt := range tests {
		err := ValidateUploadSize(tt.size)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateUploadSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
		}
		if err != nil && !IsValidationError(err) {
			t.Errorf("ValidateUploadSize(%d) error type = %T, want *ValidationError", tt.size, err)
		}
	}

	err := ValidateUploadSize(5242881)
	if err.(*ValidationError).Message != "File size exceeds 5MB limit" {
		t.Errorf("message = %q", err.(*ValidationError).Message)
	}
}

func TestValidateFolderName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Photos", "Photos", false},
		{"  Tax 2024  ", "Tax 2024", false},
		{"", "", true},
		{"   \t\n", "", true},
		{"a/b", "", true},
	}
	for _, tt := range tests {
		got, err := ValidateFolderName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFolderName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateFolderName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidationErrorWrapped(t *testing.T) {
	err := fmt.Errorf("stage: %w", &ValidationError{Field: "file", Message: "too big"})
	if !IsValidationError(err) {
		t.Error("IsValidationError(wrapped) = false, want true")
	}
	if IsValidationError(fmt.Errorf("plain")) {
		t.Error("IsValidationError(plain) = true, want false")
	}
	if got := err.Error(); got != "stage: file: too big" {
		t.Errorf("Error() = %q", got)
	}
}
