package keycloakauth

import (
	"fmt"
	"net/url"

	"github.com/ggoodman/keycloak-auth-go/app"
	"github.com/ggoodman/keycloak-auth-go/keycloak"
	"github.com/ggoodman/keycloak-auth-go/settings"
)

const settingsKey = "keycloak_settings"

// Keycloak holds a layer built from the application config.
type Keycloak struct {
	Layer *keycloak.Layer
}

// FromContext builds the layer described by the application config.
func FromContext(ctx *app.Context) (*Keycloak, error) {
	layer, err := BuildLayer(ctx)
	if err != nil {
		return nil, err
	}
	return &Keycloak{Layer: layer}, nil
}

// BuildLayer reads settings.keycloak_settings from the application config
// and builds the authentication layer. opts are applied after the options
// derived from settings. No network I/O happens here: the realm is
// discovered on first use.
func BuildLayer(ctx *app.Context, opts ...keycloak.LayerOption) (*keycloak.Layer, error) {
	return buildLayer(ctx, nil, opts)
}

func buildLayer(ctx *app.Context, instOpts []keycloak.InstanceOption, layerOpts []keycloak.LayerOption) (*keycloak.Layer, error) {
	if ctx == nil || ctx.Config == nil || ctx.Config.Settings == nil {
		return nil, fmt.Errorf("%w: no `settings` in config", ErrMissingSettings)
	}
	if _, ok := ctx.Config.Settings[settingsKey]; !ok {
		return nil, fmt.Errorf("%w: missing field `%s`", ErrMissingSettings, settingsKey)
	}

	s, err := settings.Decode(ctx.Config.Settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	ks := s.KeycloakSettings

	server, err := parseServerURL(ks.URL)
	if err != nil {
		return nil, err
	}

	inst := keycloak.NewInstance(keycloak.Config{Server: server, Realm: ks.Realm}, instOpts...)

	opts := []keycloak.LayerOption{
		keycloak.WithExpectedAudiences(ks.Audiences()...),
		keycloak.WithPassthroughMode(ks.Mode()),
		keycloak.WithPersistRawClaims(ks.PersistRawClaims),
	}
	if ctx.Logger != nil {
		opts = append(opts, keycloak.WithLogger(ctx.Logger))
	}
	return keycloak.NewLayer(inst, append(opts, layerOpts...)...), nil
}

func parseServerURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, raw)
	}
	return u, nil
}
