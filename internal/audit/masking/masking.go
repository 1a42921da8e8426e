package masking

import "strings"

const maskToken = "****"

// MaskIdentifier redacts a personal identifier (licence, plate) keeping the
// last four characters so operators can still correlate records.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskFields returns a copy of metadata with the named string keys masked.
func MaskFields(metadata map[string]any, keys ...string) map[string]any {
	if len(metadata) == 0 {
		return nil
	}

	sensitive := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		sensitive[strings.TrimSpace(key)] = struct{}{}
	}

	masked := make(map[string]any, len(metadata))
	for key, value := range metadata {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := sensitive[key]; ok {
			if s, isString := value.(string); isString {
				masked[key] = MaskIdentifier(s)
				continue
			}
		}
		masked[key] = value
	}
	return masked
}

// SignerKeys name the driver and vehicle identifiers captured at sign-off.
var SignerKeys = []string{"driver_license_number", "license_plate_number"}

// SignatureKey holds the raw signature image, which never leaves the
// sign-off record.
const SignatureKey = "signature_image"

// Redact masks SignerKeys and drops SignatureKey.
func Redact(metadata map[string]any) map[string]any {
	masked := MaskFields(metadata, SignerKeys...)
	delete(masked, SignatureKey)
	return masked
}
