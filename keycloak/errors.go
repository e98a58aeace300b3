package keycloak

import "errors"

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("keycloak: missing bearer token")
	// ErrMalformedHeader indicates an Authorization header that is not a
	// well-formed Bearer credential.
	ErrMalformedHeader = errors.New("keycloak: malformed authorization header")
	// ErrInvalidToken indicates the token failed signature, issuer, audience
	// or lifetime validation.
	ErrInvalidToken = errors.New("keycloak: invalid token")
	// ErrMissingRole indicates a valid token that lacks a required role.
	ErrMissingRole = errors.New("keycloak: missing required role")
	// ErrDiscovery indicates the realm's discovery document or keys could not
	// be loaded.
	ErrDiscovery = errors.New("keycloak: realm discovery failed")
)
