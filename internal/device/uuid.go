package device

import (
	"fmt"
	"strings"
)

const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a GATT UUID to lowercase without dashes or a 0x
// prefix. UUIDs in the Bluetooth SIG base range are reduced to their 16-bit
// form, which is how go-ble prints them.
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "0x")
	u = strings.ReplaceAll(u, "-", "")
	if len(u) == 32 && strings.HasPrefix(u, "0000") && strings.HasSuffix(u, sigBaseSuffix) {
		return u[4:8]
	}
	return u
}

// SameUUID reports whether a and b name the same GATT attribute.
func SameUUID(a, b string) bool {
	return NormalizeUUID(a) == NormalizeUUID(b)
}

// NormalizeID converts a peripheral identifier to a comparable form.
// CoreBluetooth reports UUIDs (with or without dashes), BlueZ reports MAC
// addresses; both are lowercased and stripped of separators.
func NormalizeID(id string) string {
	r := strings.NewReplacer("-", "", ":", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(id)))
}

// ValidateUUID checks that every UUID is non-empty hex of a valid BLE length
// (16, 32 or 128 bit) and returns the normalized forms.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, uuid := range uuids {
		if uuid == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		normalized := NormalizeUUID(uuid)
		switch len(normalized) {
		case 4, 8, 32:
		default:
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, uuid)
		}
		for _, r := range normalized {
			if !strings.ContainsRune("0123456789abcdef", r) {
				return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, uuid)
			}
		}
		result = append(result, normalized)
	}
	return result, nil
}
