package testutils

import (
	"github.com/go-ble/ble"
)

// AdvertisementBuilder builds ble.Advertisement values for adapter tests.
// With raw data set, the built advertisement also exposes Data() and
// ScanResponse() the way the linux HCI backend does.
type AdvertisementBuilder struct {
	adv      fakeAdvertisement
	raw      []byte
	response []byte
	addrType uint8
}

func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{
		adv: fakeAdvertisement{
			addr:        ble.NewAddr("00:00:00:00:00:00"),
			rssi:        -50,
			txPower:     127,
			connectable: true,
		},
	}
}

func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.addr = ble.NewAddr(addr)
	return b
}

func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.name = name
	return b
}

func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.rssi = rssi
	return b
}

func (b *AdvertisementBuilder) WithTxPower(power int) *AdvertisementBuilder {
	b.adv.txPower = power
	return b
}

func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.manufData = data
	return b
}

func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.adv.connectable = c
	return b
}

func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	for _, u := range uuids {
		b.adv.services = append(b.adv.services, ble.MustParse(u))
	}
	return b
}

// WithRawData sets the raw advertising payload.
func (b *AdvertisementBuilder) WithRawData(data []byte) *AdvertisementBuilder {
	b.raw = data
	return b
}

// WithScanResponse sets the raw scan response payload; it implies raw data.
func (b *AdvertisementBuilder) WithScanResponse(data []byte) *AdvertisementBuilder {
	b.response = data
	return b
}

// WithAddressType sets the HCI address type (0 public, 1 random).
func (b *AdvertisementBuilder) WithAddressType(t uint8) *AdvertisementBuilder {
	b.addrType = t
	return b
}

func (b *AdvertisementBuilder) Build() ble.Advertisement {
	adv := b.adv
	if b.raw == nil && b.response == nil {
		return &adv
	}
	return &rawAdvertisement{fakeAdvertisement: adv, data: b.raw, response: b.response, addrType: b.addrType}
}

type fakeAdvertisement struct {
	name        string
	addr        ble.Addr
	rssi        int
	txPower     int
	connectable bool
	manufData   []byte
	services    []ble.UUID
}

func (a *fakeAdvertisement) LocalName() string              { return a.name }
func (a *fakeAdvertisement) ManufacturerData() []byte       { return a.manufData }
func (a *fakeAdvertisement) ServiceData() []ble.ServiceData { return nil }
func (a *fakeAdvertisement) Services() []ble.UUID           { return a.services }
func (a *fakeAdvertisement) OverflowService() []ble.UUID    { return nil }
func (a *fakeAdvertisement) TxPowerLevel() int              { return a.txPower }
func (a *fakeAdvertisement) Connectable() bool              { return a.connectable }
func (a *fakeAdvertisement) SolicitedService() []ble.UUID   { return nil }
func (a *fakeAdvertisement) RSSI() int                      { return a.rssi }
func (a *fakeAdvertisement) Addr() ble.Addr                 { return a.addr }

type rawAdvertisement struct {
	fakeAdvertisement
	data     []byte
	response []byte
	addrType uint8
}

func (a *rawAdvertisement) Data() []byte         { return a.data }
func (a *rawAdvertisement) ScanResponse() []byte { return a.response }
func (a *rawAdvertisement) AddressType() uint8   { return a.addrType }
