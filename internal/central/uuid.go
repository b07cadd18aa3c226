package central

import "strings"

// UUID is a normalized attribute type identifier: lowercase hex without dashes,
// with 16-bit and 32-bit Bluetooth SIG UUIDs in their short form.
type UUID string

const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to its normalized form.
// Accepts short forms ("181A", "0x181a"), the dashed 128-bit form and braces.
// Returns an empty UUID if s is not a valid 16, 32 or 128-bit UUID.
func NormalizeUUID(s string) UUID {
	u := strings.ToLower(strings.TrimSpace(s))
	u = strings.TrimPrefix(u, "0x")
	u = strings.Trim(u, "{}")
	u = strings.ReplaceAll(u, "-", "")

	switch len(u) {
	case 4, 8:
	case 32:
		if strings.HasSuffix(u, sigBaseSuffix) {
			u = strings.TrimPrefix(u[:8], "0000")
		}
	default:
		return ""
	}

	for _, r := range u {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ""
		}
	}
	return UUID(u)
}

// Equal compares two identifiers after normalization.
func (u UUID) Equal(other UUID) bool {
	return NormalizeUUID(string(u)) == NormalizeUUID(string(other))
}

func (u UUID) String() string {
	return string(u)
}
