package keycloak

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/keycloak-auth-go/internal/jwtauth"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRetryInterval    = 10 * time.Second
	defaultDiscoveryTimeout = 10 * time.Second
)

// InstanceOption configures an Instance.
type InstanceOption func(*instanceConfig)

type instanceConfig struct {
	allowedAlgs      []string
	leeway           time.Duration
	retryInterval    time.Duration
	discoveryTimeout time.Duration
	skipDiscovery    bool
}

// WithAllowedAlgs restricts the accepted JWS algorithms. Defaults to RS256.
func WithAllowedAlgs(algs ...string) InstanceOption {
	return func(c *instanceConfig) { c.allowedAlgs = append([]string(nil), algs...) }
}

// WithLeeway sets clock skew tolerance for exp/nbf/iat. Defaults to 60s.
func WithLeeway(d time.Duration) InstanceOption {
	return func(c *instanceConfig) { c.leeway = d }
}

// WithRetryInterval sets the minimum delay between discovery attempts after
// a failure. Requests arriving inside the window fail fast with the cached
// error. Defaults to 10s.
func WithRetryInterval(d time.Duration) InstanceOption {
	return func(c *instanceConfig) { c.retryInterval = d }
}

// WithDiscoveryTimeout bounds a single discovery attempt and each signing
// key fetch. Defaults to 10s.
func WithDiscoveryTimeout(d time.Duration) InstanceOption {
	return func(c *instanceConfig) { c.discoveryTimeout = d }
}

// WithoutDiscovery skips the discovery document and reads keys from the
// realm's fixed certs endpoint. The issuer is taken from Config.
func WithoutDiscovery() InstanceOption {
	return func(c *instanceConfig) { c.skipDiscovery = true }
}

// Instance is a handle on one Keycloak realm. It is safe for concurrent use.
type Instance struct {
	cfg  Config
	icfg instanceConfig

	lifetime context.Context
	cancel   context.CancelFunc

	group    singleflight.Group
	verifier atomic.Pointer[jwtauth.Verifier]

	mu       sync.Mutex
	lastErr  error
	failedAt time.Time

	now func() time.Time
}

// NewInstance returns an Instance for cfg. No network I/O happens here.
func NewInstance(cfg Config, opts ...InstanceOption) *Instance {
	defaults := jwtauth.DefaultConfig()
	icfg := instanceConfig{
		allowedAlgs:      defaults.AllowedAlgs,
		leeway:           defaults.Leeway,
		retryInterval:    defaultRetryInterval,
		discoveryTimeout: defaultDiscoveryTimeout,
	}
	for _, opt := range opts {
		opt(&icfg)
	}
	lifetime, cancel := context.WithCancel(context.Background())
	return &Instance{
		cfg:      cfg,
		icfg:     icfg,
		lifetime: lifetime,
		cancel:   cancel,
		now:      time.Now,
	}
}

// Config returns the realm configuration.
func (i *Instance) Config() Config { return i.cfg }

// Realm returns the realm name.
func (i *Instance) Realm() string { return i.cfg.Realm }

// Discover loads the realm's discovery document and keys if that has not
// happened yet. Calling it at startup is optional; the first request does
// the same.
func (i *Instance) Discover(ctx context.Context) error {
	_, err := i.resolve(ctx)
	return err
}

// Close stops the background key refresh.
func (i *Instance) Close() {
	if v := i.verifier.Load(); v != nil {
		v.Close()
	}
	i.cancel()
}

func (i *Instance) resolve(ctx context.Context) (*jwtauth.Verifier, error) {
	if v := i.verifier.Load(); v != nil {
		return v, nil
	}

	i.mu.Lock()
	if i.lastErr != nil && i.now().Sub(i.failedAt) < i.icfg.retryInterval {
		err := i.lastErr
		i.mu.Unlock()
		return nil, err
	}
	i.mu.Unlock()

	res, err, _ := i.group.Do("discover", func() (any, error) {
		if v := i.verifier.Load(); v != nil {
			return v, nil
		}
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.icfg.discoveryTimeout)
		defer cancel()

		v, err := i.build(dctx)
		i.mu.Lock()
		defer i.mu.Unlock()
		if err != nil {
			i.lastErr = fmt.Errorf("%w: %v", ErrDiscovery, err)
			i.failedAt = i.now()
			return nil, i.lastErr
		}
		i.lastErr = nil
		i.verifier.Store(v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*jwtauth.Verifier), nil
}

func (i *Instance) build(ctx context.Context) (*jwtauth.Verifier, error) {
	issuer := i.cfg.Issuer()
	if issuer == "" {
		return nil, errors.New("server URL is required")
	}
	jcfg := &jwtauth.Config{
		Issuer:      issuer,
		AllowedAlgs: append([]string(nil), i.icfg.allowedAlgs...),
		Leeway:      i.icfg.leeway,
		KeysTimeout: i.icfg.discoveryTimeout,
	}
	if i.icfg.skipDiscovery {
		return jwtauth.NewStatic(i.lifetime, jcfg)
	}
	return jwtauth.NewFromDiscovery(ctx, i.lifetime, jcfg)
}

// verify resolves the realm verifier and checks tok against audiences.
func (i *Instance) verify(ctx context.Context, tok string, audiences []string) (*jwtauth.Claims, error) {
	v, err := i.resolve(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := v.Verify(ctx, tok, audiences)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}
