package keycloakauth

import "errors"

var (
	// ErrMissingSettings is returned when the config has no settings tree or
	// the tree has no keycloak_settings section.
	ErrMissingSettings = errors.New("missing settings")
	// ErrInvalidSettings wraps a settings decoding failure.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidURL is returned when the configured server URL is not an
	// absolute URL with a host.
	ErrInvalidURL = errors.New("invalid keycloak server URL")
)
