package keycloak

import "context"

type tokenKey struct{}

type statusKey struct{}

type rawClaimsKey struct{}

// Status is the authentication outcome recorded for a request.
type Status struct {
	Token *Token
	Err   error
}

// OK reports whether authentication succeeded.
func (s Status) OK() bool { return s.Err == nil && s.Token != nil }

// TokenFromContext returns the verified token stored by a Layer.
func TokenFromContext(ctx context.Context) (*Token, bool) {
	t, ok := ctx.Value(tokenKey{}).(*Token)
	return t, ok
}

// StatusFromContext returns the authentication outcome stored by a Layer.
// It is set in both passthrough modes.
func StatusFromContext(ctx context.Context) (Status, bool) {
	s, ok := ctx.Value(statusKey{}).(Status)
	return s, ok
}

// RawClaimsFromContext returns the full claim set of the verified token. It
// is only set by layers built WithPersistRawClaims(true).
func RawClaimsFromContext(ctx context.Context) (map[string]any, bool) {
	c, ok := ctx.Value(rawClaimsKey{}).(map[string]any)
	return c, ok
}

func withToken(ctx context.Context, t *Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, t)
}

func withStatus(ctx context.Context, s Status) context.Context {
	return context.WithValue(ctx, statusKey{}, s)
}

func withRawClaims(ctx context.Context, c map[string]any) context.Context {
	return context.WithValue(ctx, rawClaimsKey{}, c)
}
