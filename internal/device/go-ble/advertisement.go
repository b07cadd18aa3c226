package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux/adv"
	"github.com/srg/senspoll/internal/central"
)

// rawAdvertisement is implemented by platforms that expose the advertising payload (linux HCI)
type rawAdvertisement interface {
	Data() []byte
}

type scanResponse interface {
	ScanResponse() []byte
}

type typedAddress interface {
	AddressType() uint8
}

// txPowerUnknown is the TxPowerLevel go-ble reports when the field is absent
const txPowerUnknown = 127

// adTypes are the AD structures handed to the core, in this order
var adTypes = []central.ADType{
	central.ADFlags,
	central.ADShortLocalName,
	central.ADCompleteLocalName,
	central.ADTxPower,
	central.ADManufacturerData,
}

// toAdvertisement converts a go-ble advertisement into the core representation.
// AD fields come from the raw payload and scan response when the platform
// exposes them and are synthesized from the decoded accessors otherwise
// (CoreBluetooth). Structures after a truncated one are not found.
func toAdvertisement(a ble.Advertisement) central.Advertisement {
	out := central.Advertisement{
		Address:     central.Address(a.Addr().String()),
		RSSI:        a.RSSI(),
		Connectable: a.Connectable(),
	}
	if t, ok := a.(typedAddress); ok && t.AddressType() != 0 {
		out.AddressType = central.AddressRandom
	}

	raw, ok := a.(rawAdvertisement)
	if !ok || len(raw.Data()) == 0 {
		out.Fields = synthesizeFields(a)
		return out
	}

	payloads := [][]byte{raw.Data()}
	if sr, ok := a.(scanResponse); ok && len(sr.ScanResponse()) > 0 {
		payloads = append(payloads, sr.ScanResponse())
	}
	out.Fields = packetFields(adv.NewRawPacket(payloads...))
	return out
}

func packetFields(p *adv.Packet) []central.ADField {
	var fields []central.ADField
	for _, t := range adTypes {
		data := p.Field(byte(t))
		if data == nil {
			continue
		}
		fields = append(fields, central.ADField{Type: t, Data: append([]byte(nil), data...)})
	}
	return fields
}

func synthesizeFields(a ble.Advertisement) []central.ADField {
	var fields []central.ADField
	if name := a.LocalName(); name != "" {
		fields = append(fields, central.ADField{Type: central.ADCompleteLocalName, Data: []byte(name)})
	}
	if tx := a.TxPowerLevel(); tx != txPowerUnknown {
		fields = append(fields, central.ADField{Type: central.ADTxPower, Data: []byte{byte(int8(tx))}})
	}
	if md := a.ManufacturerData(); len(md) > 0 {
		fields = append(fields, central.ADField{Type: central.ADManufacturerData, Data: md})
	}
	return fields
}
