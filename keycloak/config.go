package keycloak

import (
	"net/url"

	"github.com/ggoodman/keycloak-auth-go/internal/wellknown"
)

// Config identifies a realm on a Keycloak server.
type Config struct {
	// Server is the base URL of the Keycloak server, e.g.
	// https://sso.example.com. A path prefix such as /auth is preserved.
	Server *url.URL
	// Realm is the realm name.
	Realm string
}

// Issuer returns the realm issuer, {server}/realms/{realm}.
func (c Config) Issuer() string {
	if c.Server == nil {
		return ""
	}
	return wellknown.RealmIssuer(c.Server.String(), c.Realm)
}
