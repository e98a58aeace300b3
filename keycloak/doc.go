// Package keycloak validates Keycloak-issued bearer tokens for net/http
// servers.
//
// An Instance identifies one realm on one Keycloak server. It is cheap to
// construct: the realm's discovery document and signing keys are fetched
// lazily on the first request that needs them and the keys are refreshed in
// the background afterwards.
//
// A Layer wraps an Instance with a per-route policy (expected audiences,
// required roles, passthrough mode) and exposes it as ordinary middleware:
//
//	u, _ := url.Parse("https://sso.example.com")
//	inst := keycloak.NewInstance(keycloak.Config{Server: u, Realm: "myrealm"})
//	defer inst.Close()
//
//	layer := keycloak.NewLayer(inst,
//	    keycloak.WithExpectedAudiences("account"),
//	    keycloak.WithPassthroughMode(keycloak.PassthroughModeBlock),
//	)
//	http.Handle("/api/", layer.Middleware(apiHandler))
//
// # Passthrough modes
//
// In PassthroughModeBlock a request without a valid token is answered by the
// layer itself with a Bearer challenge (401, or 400 for a malformed
// Authorization header, 403 for a missing role, 503 when the realm cannot be
// reached). In PassthroughModePass every request reaches the wrapped handler
// and StatusFromContext reports whether authentication succeeded.
//
// # Claims
//
// Handlers read the verified token with TokenFromContext. When the layer is
// built WithPersistRawClaims(true) the complete claim set is also available
// through RawClaimsFromContext.
package keycloak
