package central

import (
	"fmt"
	"strings"
)

// Address is a textual link-layer address ("F0:6A:41:DD:3F:8B" or a platform UUID on macOS)
type Address string

// Equal compares addresses case-insensitively.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

func (a Address) String() string {
	return string(a)
}

// AddressType distinguishes public from random link-layer addresses
type AddressType uint8

const (
	AddressPublic AddressType = iota
	AddressRandom
)

func (t AddressType) String() string {
	switch t {
	case AddressPublic:
		return "public"
	case AddressRandom:
		return "random"
	default:
		return fmt.Sprintf("AddressType(%d)", uint8(t))
	}
}

// ADType is an advertising data type from the GAP assigned numbers
type ADType byte

const (
	ADFlags             ADType = 0x01
	ADShortLocalName    ADType = 0x08
	ADCompleteLocalName ADType = 0x09
	ADTxPower           ADType = 0x0a
	ADManufacturerData  ADType = 0xff
)

// ADField is one AD structure of an advertising payload, already decoded by the wireless stack
type ADField struct {
	Type ADType
	Data []byte
}
