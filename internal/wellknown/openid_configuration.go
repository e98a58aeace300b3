package wellknown

import "strings"

// OpenIDConfigurationPath is appended to a realm issuer to locate its
// discovery document.
const OpenIDConfigurationPath = "/.well-known/openid-configuration"

// CertsPath is the fixed location of a Keycloak realm's JWKS relative to the
// realm issuer.
const CertsPath = "/protocol/openid-connect/certs"

// OpenIDConfiguration is the subset of a Keycloak realm discovery document
// this module reads.
type OpenIDConfiguration struct {
	Issuer                           string   `json:"issuer"`
	JwksURI                          string   `json:"jwks_uri"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                    string   `json:"token_endpoint,omitempty"`
	IntrospectionEndpoint            string   `json:"introspection_endpoint,omitempty"`
	UserinfoEndpoint                 string   `json:"userinfo_endpoint,omitempty"`
	EndSessionEndpoint               string   `json:"end_session_endpoint,omitempty"`
	ResponseTypesSupported           []string `json:"response_types_supported,omitempty"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`
	ScopesSupported                  []string `json:"scopes_supported,omitempty"`
}

// RealmIssuer joins a Keycloak server base URL and realm name into the
// realm's issuer identifier.
func RealmIssuer(server, realm string) string {
	return strings.TrimRight(server, "/") + "/realms/" + realm
}
