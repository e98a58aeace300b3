package keycloak

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ggoodman/keycloak-auth-go/internal/logctx"
)

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithPassthroughMode sets how failed authentication is handled. Defaults to
// PassthroughModeBlock.
func WithPassthroughMode(m PassthroughMode) LayerOption {
	return func(l *Layer) { l.mode = m }
}

// WithPersistRawClaims stores the full claim set in the request context
// (see RawClaimsFromContext).
func WithPersistRawClaims(persist bool) LayerOption {
	return func(l *Layer) { l.persistRawClaims = persist }
}

// WithExpectedAudiences requires the token's aud claim to contain at least
// one of auds. With no audiences the aud claim is not checked.
func WithExpectedAudiences(auds ...string) LayerOption {
	return func(l *Layer) { l.audiences = append([]string(nil), auds...) }
}

// WithRequiredRoles requires every role in roles to be present, either as a
// realm role or as a role of any client.
func WithRequiredRoles(roles ...string) LayerOption {
	return func(l *Layer) { l.requiredRoles = append([]string(nil), roles...) }
}

// WithTokenExtractors replaces the token sources, tried in order. Defaults
// to AuthorizationHeader().
func WithTokenExtractors(extractors ...TokenExtractor) LayerOption {
	return func(l *Layer) { l.extractors = append([]TokenExtractor(nil), extractors...) }
}

// WithLogger sets the logger. If not provided, slog.Default() is used.
func WithLogger(log *slog.Logger) LayerOption {
	return func(l *Layer) { l.log = log }
}

// WithMetrics records each authentication outcome in m.
func WithMetrics(m *Metrics) LayerOption {
	return func(l *Layer) { l.metrics = m }
}

// Layer is token-validating middleware bound to one Instance. A Layer is
// immutable after NewLayer and safe for concurrent use.
type Layer struct {
	inst             *Instance
	mode             PassthroughMode
	persistRawClaims bool
	audiences        []string
	requiredRoles    []string
	extractors       []TokenExtractor
	log              *slog.Logger
	metrics          *Metrics
}

// NewLayer builds a Layer for inst.
func NewLayer(inst *Instance, opts ...LayerOption) *Layer {
	l := &Layer{
		inst:       inst,
		mode:       PassthroughModeBlock,
		extractors: []TokenExtractor{AuthorizationHeader()},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logctx.Wrap(l.log)
	return l
}

// Instance returns the realm instance the layer validates against.
func (l *Layer) Instance() *Instance { return l.inst }

// PassthroughMode returns the configured passthrough mode.
func (l *Layer) PassthroughMode() PassthroughMode { return l.mode }

// PersistRawClaims reports whether raw claims are stored in the context.
func (l *Layer) PersistRawClaims() bool { return l.persistRawClaims }

// ExpectedAudiences returns a copy of the accepted audiences.
func (l *Layer) ExpectedAudiences() []string { return append([]string(nil), l.audiences...) }

// Middleware wraps next with token validation.
func (l *Layer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tok, raw, err := l.authenticate(r)
		l.metrics.observe(err)

		if err != nil {
			if l.mode == PassthroughModePass {
				l.log.DebugContext(ctx, "keycloak.auth.pass", slog.String("err", err.Error()))
				next.ServeHTTP(w, r.WithContext(withStatus(ctx, Status{Err: err})))
				return
			}
			l.log.InfoContext(ctx, "keycloak.auth.fail", slog.String("err", err.Error()))
			writeRejection(w, r, l.inst.Realm(), rejectionFor(err))
			return
		}

		ctx = withToken(ctx, tok)
		ctx = withStatus(ctx, Status{Token: tok})
		if l.persistRawClaims {
			ctx = withRawClaims(ctx, raw)
		}
		ctx = logctx.WithAuthData(ctx, &logctx.AuthData{
			Realm:           l.inst.Realm(),
			Subject:         tok.Subject,
			AuthorizedParty: tok.AuthorizedParty,
		})
		l.log.DebugContext(ctx, "keycloak.auth.ok")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (l *Layer) authenticate(r *http.Request) (*Token, map[string]any, error) {
	raw, err := extractToken(r, l.extractors)
	if err != nil {
		return nil, nil, err
	}
	claims, err := l.inst.verify(r.Context(), raw, l.audiences)
	if err != nil {
		return nil, nil, err
	}
	tok, err := tokenFromClaims(claims)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode claims: %v", ErrInvalidToken, err)
	}
	var missing []string
	for _, role := range l.requiredRoles {
		if !tok.HasRole(role) {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingRole, strings.Join(missing, ", "))
	}
	return tok, claims.Raw, nil
}
