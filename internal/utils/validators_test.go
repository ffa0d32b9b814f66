package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	got, err := ValidateEmail("  Vera.Smith@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "vera.smith@example.com", got)

	for _, bad := range []string{"", "   ", "plainaddress", "a@b", "two@@example.com", "spaces in@example.com"} {
		_, err := ValidateEmail(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"4165551234", "+14165551234"},
		{"(416) 555-1234", "+14165551234"},
		{"1-416-555-1234", "+14165551234"},
		{"+1 416 555 1234", "+14165551234"},
	}
	for _, tt := range tests {
		got, err := ValidatePhoneNumber(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"12345", "416555123", "41655512345", "2-416-555-1234"} {
		_, err := ValidatePhoneNumber(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestValidatePostalCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"M5V 2T6", "M5V 2T6"},
		{"m5v2t6", "M5V 2T6"},
		{" k1a 0b1 ", "K1A 0B1"},
	}
	for _, tt := range tests {
		got, err := ValidatePostalCode(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"12345", "M5V", "D5V 2T6", "M5O 2T6", "M5V-2T6"} {
		_, err := ValidatePostalCode(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
