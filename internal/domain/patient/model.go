package patient

import (
	"strings"
	"time"
)

// UnknownID is the sentinel patient for events carrying no usable identity
// at all: no patient id and no gateway id.
const UnknownID = "unknown"

const placeholderPrefix = "unassigned-"

// Patient is a directory entry. The service never invents clinical data;
// a patient row exists so readings have somewhere stable to land.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// PlaceholderID derives the stable placeholder patient id for an unmapped
// gateway. The same gateway always resolves to the same placeholder, so its
// readings stay grouped until an operator binds it properly.
func PlaceholderID(gatewayNorm string) string {
	return placeholderPrefix + strings.ToLower(gatewayNorm)
}

// IsPlaceholder reports whether an id was derived from an unmapped gateway.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}
