package central

import (
	"fmt"
	"strings"
)

// Kind is the semantic tag of a characteristic, independent of its value handle
type Kind int

const (
	KindUnknown Kind = iota
	Temperature
	Humidity
	Pressure
	Red
	Green
	Blue
)

var kindNames = map[Kind]string{
	Temperature: "Temperature",
	Humidity:    "Humidity",
	Pressure:    "Pressure",
	Red:         "Red",
	Green:       "Green",
	Blue:        "Blue",
}

var kindUnits = map[Kind]string{
	Temperature: "°C",
	Humidity:    "%",
	Pressure:    "hPa",
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{Temperature, Humidity, Pressure, Red, Green, Blue}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Unit returns the physical unit of decoded values, empty for dimensionless kinds.
func (k Kind) Unit() string {
	return kindUnits[k]
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown characteristic kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown characteristic kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
