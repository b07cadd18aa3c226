package central_test

import (
	"testing"

	"github.com/srg/senspoll/internal/central"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected central.UUID
	}{
		{name: "16-bit", input: "181A", expected: "181a"},
		{name: "16-bit with 0x prefix", input: "0x2A6E", expected: "2a6e"},
		{name: "32-bit", input: "0000181a", expected: "0000181a"},
		{name: "SIG base UUID with dashes", input: "00002a6d-0000-1000-8000-00805f9b34fb", expected: "2a6d"},
		{name: "SIG base UUID uppercase no dashes", input: "00002A6F00001000800000805F9B34FB", expected: "2a6f"},
		{name: "SIG base UUID with 32-bit value", input: "1234abcd-0000-1000-8000-00805f9b34fb", expected: "1234abcd"},
		{name: "custom 128-bit", input: "12345678-1234-5678-1234-56789ABCDEF1", expected: "1234567812345678123456789abcdef1"},
		{name: "braces", input: "{12345678-1234-5678-1234-56789abcdef0}", expected: "1234567812345678123456789abcdef0"},
		{name: "invalid length", input: "181", expected: ""},
		{name: "invalid hex", input: "zz1a", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, central.NormalizeUUID(tt.input))
		})
	}
}

func TestUUIDEqual(t *testing.T) {
	assert.True(t, central.UUID("2A6E").Equal("00002a6e-0000-1000-8000-00805f9b34fb"))
	assert.False(t, central.UUID("2a6e").Equal("2a6f"))
}
