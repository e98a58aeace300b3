package keycloak

import (
	"fmt"
	"net/http"
	"strings"
)

// TokenExtractor pulls a raw bearer token out of a request. It returns an
// empty string and a nil error when the request carries no token in the
// location it inspects.
type TokenExtractor interface {
	Extract(r *http.Request) (string, error)
}

// TokenExtractorFunc adapts a function to TokenExtractor.
type TokenExtractorFunc func(r *http.Request) (string, error)

func (f TokenExtractorFunc) Extract(r *http.Request) (string, error) { return f(r) }

// AuthorizationHeader extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func AuthorizationHeader() TokenExtractor {
	return TokenExtractorFunc(func(r *http.Request) (string, error) {
		h := r.Header.Get("Authorization")
		if h == "" {
			return "", nil
		}
		scheme, tok, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", fmt.Errorf("%w: expected Bearer scheme", ErrMalformedHeader)
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return "", fmt.Errorf("%w: empty bearer token", ErrMalformedHeader)
		}
		return tok, nil
	})
}

// QueryParam extracts the token from the named query parameter. Useful for
// WebSocket and EventSource clients that cannot set headers.
func QueryParam(name string) TokenExtractor {
	return TokenExtractorFunc(func(r *http.Request) (string, error) {
		return strings.TrimSpace(r.URL.Query().Get(name)), nil
	})
}

func extractToken(r *http.Request, extractors []TokenExtractor) (string, error) {
	for _, e := range extractors {
		tok, err := e.Extract(r)
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", ErrMissingToken
}
