package keycloakauth

import (
	"context"
	"fmt"
	"sync"

	"github.com/ggoodman/keycloak-auth-go/app"
	"github.com/ggoodman/keycloak-auth-go/keycloak"
	"github.com/prometheus/client_golang/prometheus"
)

// Name identifies the initializer.
const Name = "keycloak_auth"

// Option configures an Initializer.
type Option func(*Initializer)

// WithLayerOptions appends options applied to every layer the initializer
// builds, after the settings-derived ones.
func WithLayerOptions(opts ...keycloak.LayerOption) Option {
	return func(i *Initializer) { i.layerOpts = append(i.layerOpts, opts...) }
}

// WithInstanceOptions appends options for the realm instance.
func WithInstanceOptions(opts ...keycloak.InstanceOption) Option {
	return func(i *Initializer) { i.instOpts = append(i.instOpts, opts...) }
}

// WithMetrics records authentication outcomes in reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(i *Initializer) { i.registerer = reg }
}

// Initializer protects every route of an app.Router with Keycloak
// authentication. The zero value is ready to use.
//
// Each realm instance it builds refreshes its signing keys in the background
// once used. Call Close when the router is no longer served.
type Initializer struct {
	layerOpts  []keycloak.LayerOption
	instOpts   []keycloak.InstanceOption
	registerer prometheus.Registerer

	mu        sync.Mutex
	instances []*keycloak.Instance
}

var _ app.Initializer = (*Initializer)(nil)

// NewInitializer returns an Initializer configured with opts.
func NewInitializer(opts ...Option) *Initializer {
	i := &Initializer{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Name returns "keycloak_auth".
func (i *Initializer) Name() string { return Name }

// AfterRoutes builds the layer from appCtx and attaches it to r. Each call
// builds a fresh layer.
func (i *Initializer) AfterRoutes(_ context.Context, r *app.Router, appCtx *app.Context) (*app.Router, error) {
	layerOpts := i.layerOpts
	if i.registerer != nil {
		m, err := keycloak.NewMetrics(i.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to create keycloak layer: %w", err)
		}
		layerOpts = append(layerOpts[:len(layerOpts):len(layerOpts)], keycloak.WithMetrics(m))
	}
	layer, err := buildLayer(appCtx, i.instOpts, layerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create keycloak layer: %w", err)
	}
	i.mu.Lock()
	i.instances = append(i.instances, layer.Instance())
	i.mu.Unlock()
	return r.Layer(layer.Middleware), nil
}

// Close stops the background work of every instance built by AfterRoutes.
func (i *Initializer) Close() {
	i.mu.Lock()
	instances := i.instances
	i.instances = nil
	i.mu.Unlock()
	for _, inst := range instances {
		inst.Close()
	}
}
