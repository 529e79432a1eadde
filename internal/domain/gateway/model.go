package gateway

import (
	"strings"
	"time"
)

// Binding maps a hardware gateway to the patient wearing its devices.
// Bindings are keyed by the normalized gateway id; rebinding a gateway to a
// new patient replaces the old row (last writer wins).
type Binding struct {
	GatewayNorm string    `json:"gateway_id"`
	GatewayRaw  string    `json:"gateway_raw,omitempty"`
	PatientID   string    `json:"patient_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize canonicalizes a gateway id: upper-case, alphanumerics only.
// Vendors report the same hardware id with varying case, dashes and
// whitespace; normalizing makes "ab-12 cd" and "AB12CD" the same key.
// The function is idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
