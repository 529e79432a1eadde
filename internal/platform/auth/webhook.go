package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"
)

// Header names observed across vendor webhook configurations; the shared
// secret is accepted from any of them.
var webhookKeyHeaders = []string{"X-Webhook-Key", "X-Auth-Key", "Authorization"}

// CheckWebhookSecret compares the caller-supplied secret against the
// configured one. An empty configured secret disables the check (open/dev
// mode). Surrounding whitespace is ignored on both sides.
func CheckWebhookSecret(c echo.Context, expected string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return true
	}

	var sent string
	for _, h := range webhookKeyHeaders {
		if v := strings.TrimSpace(c.Request().Header.Get(h)); v != "" {
			sent = v
			break
		}
	}

	return subtle.ConstantTimeCompare([]byte(sent), []byte(expected)) == 1
}
