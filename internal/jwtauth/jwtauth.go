package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/jwkset"
	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/ggoodman/keycloak-auth-go/internal/wellknown"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	keyRefreshInterval = time.Hour
	unknownKIDInterval = 5 * time.Minute
)

// Config controls how access tokens issued by a single Keycloak realm are
// verified. Audience policy is not part of Config: the same verifier is shared
// by layers that may expect different audiences.
type Config struct {
	Issuer      string
	AllowedAlgs []string
	Leeway      time.Duration
	// KeysTimeout bounds each JWKS request. Zero means one minute.
	KeysTimeout time.Duration
}

// DefaultConfig returns a Config with safe defaults for algorithm and leeway.
func DefaultConfig() *Config {
	return &Config{
		AllowedAlgs: []string{"RS256"},
		Leeway:      60 * time.Second,
	}
}

// ErrKeysUnavailable is returned when the realm's JWKS cannot be fetched.
var ErrKeysUnavailable = errors.New("jwtauth: signing keys unavailable")

// ErrUnauthorized indicates that the access token failed validation (e.g.,
// signature, issuer, audience, exp/nbf) and the request should be treated as
// unauthenticated.
var ErrUnauthorized = errors.New("jwtauth: unauthorized")

// Claims is the verified content of an access token.
type Claims struct {
	Subject string
	Raw     map[string]any
}

// Decode unmarshals the raw claims into ref.
func (c *Claims) Decode(ref any) error {
	b, err := json.Marshal(c.Raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

// Verifier validates access tokens against one realm's signing keys.
type Verifier struct {
	cfg     *Config
	meta    wellknown.OpenIDConfiguration
	keyfunc jwt.Keyfunc
	stop    context.CancelFunc
}

// Discover fetches and checks the realm's discovery document. The issuer in
// the document must match cfg.Issuer exactly.
func Discover(ctx context.Context, cfg *Config) (wellknown.OpenIDConfiguration, error) {
	var meta wellknown.OpenIDConfiguration
	if cfg == nil {
		return meta, errors.New("config is required")
	}
	if cfg.Issuer == "" {
		return meta, errors.New("issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return meta, fmt.Errorf("oidc discovery failed: %w", err)
	}
	if err := provider.Claims(&meta); err != nil {
		return meta, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return meta, errors.New("discovery incomplete: missing jwks_uri")
	}
	return meta, nil
}

// New builds a Verifier from discovery metadata. The JWKS behind
// meta.JwksURI is fetched once before New returns, failing with
// ErrKeysUnavailable, and then refreshed in the background until lifetime is
// cancelled or Close is called.
func New(lifetime context.Context, cfg *Config, meta wellknown.OpenIDConfiguration) (*Verifier, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if meta.JwksURI == "" {
		return nil, errors.New("jwks uri required")
	}
	if meta.Issuer == "" {
		meta.Issuer = cfg.Issuer
	}
	if len(cfg.AllowedAlgs) == 0 {
		cfg.AllowedAlgs = []string{"RS256"}
	}

	ctx, stop := context.WithCancel(lifetime)
	remote, err := jwkset.NewStorageFromHTTP(meta.JwksURI, jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		HTTPTimeout:     cfg.KeysTimeout,
		RefreshInterval: keyRefreshInterval,
	})
	if err != nil {
		stop()
		return nil, fmt.Errorf("%w: %w", ErrKeysUnavailable, err)
	}
	store, err := jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		HTTPURLs:          map[string]jwkset.Storage{meta.JwksURI: remote},
		RateLimitWaitMax:  time.Minute,
		RefreshUnknownKID: rate.NewLimiter(rate.Every(unknownKIDInterval), 1),
	})
	if err != nil {
		stop()
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: store})
	if err != nil {
		stop()
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	return &Verifier{
		cfg:  cfg,
		meta: meta,
		stop: stop,
		keyfunc: func(t *jwt.Token) (any, error) {
			if alg := t.Method.Alg(); !slices.Contains(cfg.AllowedAlgs, alg) {
				return nil, fmt.Errorf("disallowed alg: %s", alg)
			}
			return kf.Keyfunc(t)
		},
	}, nil
}

// NewFromDiscovery performs discovery with ctx and then builds a Verifier
// whose key refresh is bound to lifetime.
func NewFromDiscovery(ctx, lifetime context.Context, cfg *Config) (*Verifier, error) {
	meta, err := Discover(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(lifetime, cfg, meta)
}

// NewStatic builds a Verifier for a realm without fetching its discovery
// document, using the fixed Keycloak certs location under the issuer.
func NewStatic(lifetime context.Context, cfg *Config) (*Verifier, error) {
	if cfg == nil || cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	return New(lifetime, cfg, wellknown.OpenIDConfiguration{
		Issuer:  cfg.Issuer,
		JwksURI: cfg.Issuer + wellknown.CertsPath,
	})
}

// Close stops the background key refresh.
func (v *Verifier) Close() { v.stop() }

// Metadata returns the discovery document the verifier was built from.
func (v *Verifier) Metadata() wellknown.OpenIDConfiguration { return v.meta }

// Verify checks signature, expiry, issuer and (when audiences is non-empty)
// that the token's aud claim intersects audiences.
func (v *Verifier) Verify(ctx context.Context, tok string, audiences []string) (*Claims, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods(v.cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.meta.Issuer),
		jwt.WithLeeway(v.cfg.Leeway),
	)
	parsed, err := parser.Parse(tok, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: token parse/verify failed: %v", ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if len(audiences) > 0 && !audIntersects(claims["aud"], audiences) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrUnauthorized)
	}
	if iatf, ok := claims["iat"].(float64); ok {
		iat := time.Unix(int64(iatf), 0)
		if iat.After(time.Now().Add(v.cfg.Leeway).Add(5 * time.Minute)) {
			return nil, fmt.Errorf("%w: iat too far in future", ErrUnauthorized)
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrUnauthorized)
	}
	return &Claims{Subject: sub, Raw: claims}, nil
}

func audIntersects(aud any, wants []string) bool {
	switch v := aud.(type) {
	case string:
		return slices.Contains(wants, v)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && slices.Contains(wants, s) {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if slices.Contains(wants, s) {
				return true
			}
		}
	}
	return false
}
