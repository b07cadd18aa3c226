package central_test

import (
	"errors"
	"testing"

	"github.com/srg/senspoll/internal/central"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		kind     central.Kind
		data     []byte
		expected float64
	}{
		{name: "temperature 2536 is 25.36", kind: central.Temperature, data: []byte{0xe8, 0x09}, expected: 25.36},
		{name: "negative temperature", kind: central.Temperature, data: []byte{0x0c, 0xfe}, expected: -5.00},
		{name: "humidity 4567 is 45.67", kind: central.Humidity, data: []byte{0xd7, 0x11}, expected: 45.67},
		{name: "humidity is unsigned", kind: central.Humidity, data: []byte{0xff, 0xff}, expected: 655.35},
		{name: "pressure 10132 is 1013.2", kind: central.Pressure, data: []byte{0x94, 0x27, 0x00, 0x00}, expected: 1013.2},
		{name: "red 200 is 200", kind: central.Red, data: []byte{200}, expected: 200},
		{name: "green zero", kind: central.Green, data: []byte{0}, expected: 0},
		{name: "blue 255", kind: central.Blue, data: []byte{255}, expected: 255},
		{name: "longer payload decodes the leading bytes", kind: central.Red, data: []byte{7, 1, 2}, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := central.Decode(tt.kind, tt.data)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestDecodeShortPayload(t *testing.T) {
	tests := []struct {
		kind central.Kind
		data []byte
		want int
	}{
		{kind: central.Temperature, data: []byte{0x01}, want: 2},
		{kind: central.Humidity, data: nil, want: 2},
		{kind: central.Pressure, data: []byte{1, 2, 3}, want: 4},
		{kind: central.Blue, data: []byte{}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			_, err := central.Decode(tt.kind, tt.data)

			var derr *central.DecodeError
			require.True(t, errors.As(err, &derr), "short payload MUST produce a DecodeError")
			assert.Equal(t, tt.kind, derr.Kind)
			assert.Equal(t, tt.want, derr.Want)
			assert.Equal(t, len(tt.data), derr.Got)
		})
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := central.Decode(central.KindUnknown, []byte{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestKindText(t *testing.T) {
	for _, k := range central.Kinds() {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var back central.Kind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}

	k, err := central.ParseKind(" temperature ")
	require.NoError(t, err)
	assert.Equal(t, central.Temperature, k)
	assert.Equal(t, "°C", k.Unit())
	assert.Equal(t, "", central.Red.Unit())

	_, err = central.ParseKind("voltage")
	assert.Error(t, err)
}
