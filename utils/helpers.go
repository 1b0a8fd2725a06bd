// utils/helpers.go
package utils

// FilterFields copies only the allowed keys out of a decoded payload. Used
// where an endpoint must not let the caller touch arbitrary schema fields.
func FilterFields(payload map[string]interface{}, allowed ...string) map[string]interface{} {
	filtered := make(map[string]interface{}, len(allowed))
	for _, key := range allowed {
		if value, ok := payload[key]; ok {
			filtered[key] = value
		}
	}
	return filtered
}
