package goble

import (
	"errors"
	"testing"

	"github.com/srg/senspoll/internal/central"
	"github.com/srg/senspoll/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAdvertisementSynthesized(t *testing.T) {
	a := testutils.NewAdvertisementBuilder().
		WithAddress("F7:D9:EB:6B:1A:7F").
		WithName("RGBSensor").
		WithTxPower(-4).
		WithManufacturerData([]byte{0x59, 0x00, 0x01}).
		WithConnectable(false).
		Build()

	adv := toAdvertisement(a)
	assert.False(t, adv.Connectable)
	assert.Equal(t, central.AddressPublic, adv.AddressType)
	assert.Equal(t, []central.ADField{
		{Type: central.ADCompleteLocalName, Data: []byte("RGBSensor")},
		{Type: central.ADTxPower, Data: []byte{0xfc}},
		{Type: central.ADManufacturerData, Data: []byte{0x59, 0x00, 0x01}},
	}, adv.Fields)
}

func TestToAdvertisementNoTxPower(t *testing.T) {
	adv := toAdvertisement(testutils.NewAdvertisementBuilder().Build())
	assert.Empty(t, adv.Fields)
}

func TestToAdvertisementRaw(t *testing.T) {
	t.Run("raw payload wins over decoded name", func(t *testing.T) {
		a := testutils.NewAdvertisementBuilder().
			WithName("EnvironmentalSensor").
			WithRawData([]byte{0x02, 0x01, 0x06, 0x04, 0x08, 'E', 'n', 'v'}).
			WithScanResponse([]byte{0x02, 0x0a, 0x00}).
			WithAddressType(1).
			Build()

		adv := toAdvertisement(a)
		assert.Equal(t, central.AddressRandom, adv.AddressType)
		require.Len(t, adv.Fields, 3)
		_, complete := adv.Field(central.ADCompleteLocalName)
		assert.False(t, complete, "short name MUST NOT turn into a complete name")
		tx, ok := adv.Field(central.ADTxPower)
		assert.True(t, ok)
		assert.Equal(t, []byte{0x00}, tx)
	})

	t.Run("truncated structure is not found", func(t *testing.T) {
		a := testutils.NewAdvertisementBuilder().
			WithRawData([]byte{0x02, 0x01, 0x06, 0x09, 0x09, 'E'}).
			Build()

		adv := toAdvertisement(a)
		require.Len(t, adv.Fields, 1)
		assert.Equal(t, central.ADFlags, adv.Fields[0].Type)
	})

	t.Run("padding ends the payload", func(t *testing.T) {
		a := testutils.NewAdvertisementBuilder().
			WithRawData([]byte{
				0x0a, 0x09, 'R', 'G', 'B', 'S', 'e', 'n', 's', 'o', 'r',
				0x00, 0x00, 0x00,
			}).
			Build()

		adv := toAdvertisement(a)
		require.Len(t, adv.Fields, 1)
		name, ok := adv.Field(central.ADCompleteLocalName)
		require.True(t, ok)
		assert.Equal(t, "RGBSensor", string(name))
	})

	t.Run("scan response fields are merged", func(t *testing.T) {
		a := testutils.NewAdvertisementBuilder().
			WithRawData([]byte{0x02, 0x01, 0x06}).
			WithScanResponse([]byte{0x14, 0x09, 'E', 'n', 'v', 'i', 'r', 'o', 'n', 'm', 'e', 'n', 't', 'a', 'l', 'S', 'e', 'n', 's', 'o', 'r'}).
			Build()

		adv := toAdvertisement(a)
		name, ok := adv.Field(central.ADCompleteLocalName)
		require.True(t, ok, "name from the scan response MUST be found")
		assert.Equal(t, "EnvironmentalSensor", string(name))
	})
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		msg      string
		sentinel error
	}{
		{msg: "central manager has invalid state: have=4 want=5: is Bluetooth turned on?", sentinel: ErrBluetoothOff},
		{msg: "Bluetooth is turned off", sentinel: ErrBluetoothOff},
		{msg: "device not connected", sentinel: ErrNotConnected},
		{msg: "peripheral disconnected", sentinel: ErrNotConnected},
		{msg: "device already connected", sentinel: ErrAlreadyConnected},
		{msg: "hci: Command Disallowed", sentinel: central.ErrScanBusy},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := NormalizeError(errors.New(tt.msg))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.msg, "original message MUST be kept")
		})
	}

	assert.NoError(t, NormalizeError(nil))
	plain := errors.New("something else")
	assert.Same(t, plain, NormalizeError(plain))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, DefaultEventBuffer, opts.EventBuffer)
	assert.Equal(t, DefaultStopScanTimeout, opts.StopScanTimeout)
	assert.True(t, opts.AllowDuplicates)
}
