// Package keycloaktest provides an in-process fake Keycloak realm for tests.
//
// A Realm serves the realm discovery document and its certs endpoint from an
// httptest.Server and signs access tokens with a freshly generated RSA key,
// so code under test can exercise real discovery, JWKS fetching and
// signature verification without a running Keycloak.
package keycloaktest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ggoodman/keycloak-auth-go/internal/wellknown"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAudience is the audience Keycloak places in access tokens for the
// built-in account client.
const DefaultAudience = "account"

// DefaultClientID is the authorized party stamped on issued tokens.
const DefaultClientID = "test-client"

// Realm is a fake Keycloak realm.
type Realm struct {
	name string
	srv  *httptest.Server
	key  *rsa.PrivateKey
	kid  string

	failDiscovery atomic.Bool
	failCerts     atomic.Bool
	discoveryHits atomic.Int32
	certsHits     atomic.Int32
}

// NewRealm starts a fake realm named name. The server is closed when the
// test finishes.
func NewRealm(t testing.TB, name string) *Realm {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	r := &Realm{name: name, key: pk, kid: uuid.NewString()}

	mux := http.NewServeMux()
	realmPath := "/realms/" + name
	mux.HandleFunc("GET "+realmPath+wellknown.OpenIDConfigurationPath, r.handleDiscovery)
	mux.HandleFunc("GET "+realmPath+wellknown.CertsPath, r.handleCerts)
	r.srv = httptest.NewServer(mux)
	t.Cleanup(r.srv.Close)
	return r
}

// Name returns the realm name.
func (r *Realm) Name() string { return r.name }

// ServerURL returns the base URL of the fake Keycloak server.
func (r *Realm) ServerURL() string { return r.srv.URL }

// Issuer returns the realm issuer, {server}/realms/{name}.
func (r *Realm) Issuer() string { return wellknown.RealmIssuer(r.srv.URL, r.name) }

// KeyID returns the kid of the realm signing key.
func (r *Realm) KeyID() string { return r.kid }

// FailDiscovery makes the discovery endpoint answer 503 while fail is true.
func (r *Realm) FailDiscovery(fail bool) { r.failDiscovery.Store(fail) }

// FailCerts makes the certs endpoint answer 503 while fail is true.
func (r *Realm) FailCerts(fail bool) { r.failCerts.Store(fail) }

// DiscoveryRequests reports how many discovery requests were served.
func (r *Realm) DiscoveryRequests() int { return int(r.discoveryHits.Load()) }

// CertsRequests reports how many certs requests were served.
func (r *Realm) CertsRequests() int { return int(r.certsHits.Load()) }

func (r *Realm) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	r.discoveryHits.Add(1)
	if r.failDiscovery.Load() {
		http.Error(w, "realm unavailable", http.StatusServiceUnavailable)
		return
	}
	iss := r.Issuer()
	meta := map[string]any{
		"issuer":                                iss,
		"jwks_uri":                              iss + wellknown.CertsPath,
		"authorization_endpoint":                iss + "/protocol/openid-connect/auth",
		"token_endpoint":                        iss + "/protocol/openid-connect/token",
		"userinfo_endpoint":                     iss + "/protocol/openid-connect/userinfo",
		"end_session_endpoint":                  iss + "/protocol/openid-connect/logout",
		"response_types_supported":              []string{"code", "id_token", "code id_token"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email"},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meta)
}

func (r *Realm) handleCerts(w http.ResponseWriter, _ *http.Request) {
	r.certsHits.Add(1)
	if r.failCerts.Load() {
		http.Error(w, "realm unavailable", http.StatusServiceUnavailable)
		return
	}
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &r.key.PublicKey,
		KeyID:     r.kid,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

// Sign signs claims verbatim with the realm key.
func (r *Realm) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = r.kid
	s, err := tok.SignedString(r.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// ClaimOption adjusts the claims of a token minted by Issue.
type ClaimOption func(jwt.MapClaims)

// WithAudience replaces the aud claim.
func WithAudience(aud ...string) ClaimOption {
	return func(c jwt.MapClaims) {
		if len(aud) == 1 {
			c["aud"] = aud[0]
			return
		}
		c["aud"] = append([]string(nil), aud...)
	}
}

// WithRealmRoles sets realm_access.roles.
func WithRealmRoles(roles ...string) ClaimOption {
	return func(c jwt.MapClaims) {
		c["realm_access"] = map[string]any{"roles": append([]string(nil), roles...)}
	}
}

// WithClientRoles adds resource_access.<client>.roles.
func WithClientRoles(client string, roles ...string) ClaimOption {
	return func(c jwt.MapClaims) {
		ra, _ := c["resource_access"].(map[string]any)
		if ra == nil {
			ra = map[string]any{}
		}
		ra[client] = map[string]any{"roles": append([]string(nil), roles...)}
		c["resource_access"] = ra
	}
}

// WithExpiry sets exp.
func WithExpiry(exp time.Time) ClaimOption {
	return func(c jwt.MapClaims) { c["exp"] = exp.Unix() }
}

// WithIssuer overrides iss.
func WithIssuer(iss string) ClaimOption {
	return func(c jwt.MapClaims) { c["iss"] = iss }
}

// WithClaim sets an arbitrary claim.
func WithClaim(name string, value any) ClaimOption {
	return func(c jwt.MapClaims) { c[name] = value }
}

// Issue mints an access token for subject shaped like the ones Keycloak
// issues: audience "account", one hour lifetime, typ "Bearer".
func (r *Realm) Issue(t testing.TB, subject string, opts ...ClaimOption) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                r.Issuer(),
		"sub":                subject,
		"aud":                DefaultAudience,
		"azp":                DefaultClientID,
		"typ":                "Bearer",
		"exp":                now.Add(time.Hour).Unix(),
		"iat":                now.Unix(),
		"jti":                uuid.NewString(),
		"preferred_username": subject,
		"email":              subject + "@example.com",
		"email_verified":     true,
	}
	for _, opt := range opts {
		opt(claims)
	}
	return r.Sign(t, claims)
}
