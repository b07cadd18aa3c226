package central

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Width returns the raw payload width of a kind in bytes.
func (k Kind) Width() int {
	switch k {
	case Temperature, Humidity:
		return 2
	case Pressure:
		return 4
	case Red, Green, Blue:
		return 1
	default:
		return 0
	}
}

// Decode converts a little-endian payload into the kind's physical value.
// Bytes beyond the kind's width are ignored.
func Decode(k Kind, data []byte) (float64, error) {
	want := k.Width()
	if want == 0 {
		return 0, fmt.Errorf("decode: unsupported kind %s", k)
	}
	if len(data) < want {
		return 0, &DecodeError{Kind: k, Want: want, Got: len(data)}
	}

	switch k {
	case Temperature:
		return float64(int16(binary.LittleEndian.Uint16(data))) / 100.0, nil
	case Humidity:
		return float64(binary.LittleEndian.Uint16(data)) / 100.0, nil
	case Pressure:
		return float64(binary.LittleEndian.Uint32(data)) / 10.0, nil
	default:
		return float64(data[0]), nil
	}
}

// ReadDecoder maps completed reads back to kinds and decodes them.
type ReadDecoder struct{}

// DecodeRead resolves the value handle through the session and decodes the payload.
func (ReadDecoder) DecodeRead(s *Session, vh ValueHandle, data []byte, at time.Time) (Sample, error) {
	kind, ok := s.KindFor(vh)
	if !ok {
		return Sample{}, fmt.Errorf("%w: %d on handle %d", ErrUnknownValueHandle, vh, s.handle)
	}
	value, err := Decode(kind, data)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Role:    s.Role(),
		Address: s.address,
		Kind:    kind,
		Value:   value,
		Unit:    kind.Unit(),
		At:      at,
	}, nil
}
