package keycloak

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
)

var (
	jsonMediaType   = contenttype.NewMediaType("application/json")
	textMediaType   = contenttype.NewMediaType("text/plain")
	errorMediaTypes = []contenttype.MediaType{jsonMediaType, textMediaType}
)

const wwwAuthenticateHeader = "WWW-Authenticate"

// rejection is the HTTP answer for a failed authentication in Block mode.
type rejection struct {
	status    int
	errorCode string
	message   string
}

func rejectionFor(err error) rejection {
	switch {
	case errors.Is(err, ErrMissingToken):
		return rejection{status: http.StatusUnauthorized, message: "authentication required"}
	case errors.Is(err, ErrMalformedHeader):
		return rejection{status: http.StatusBadRequest, errorCode: "invalid_request", message: "malformed bearer authorization header"}
	case errors.Is(err, ErrInvalidToken):
		return rejection{status: http.StatusUnauthorized, errorCode: "invalid_token", message: "the access token is invalid"}
	case errors.Is(err, ErrMissingRole):
		return rejection{status: http.StatusForbidden, errorCode: "insufficient_scope", message: "missing required role"}
	case errors.Is(err, ErrDiscovery):
		return rejection{status: http.StatusServiceUnavailable, message: "authentication service unavailable"}
	default:
		return rejection{status: http.StatusInternalServerError, message: "authentication failed"}
	}
}

// buildBearerChallenge builds a Bearer challenge header value:
//
//	Bearer realm="<realm>", error="...", error_description="..."
//
// A request without credentials gets no error code (RFC 6750 §3.1).
func buildBearerChallenge(realm, errorCode, description string) string {
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace
	pieces := make([]string, 0, 3)
	if realm != "" {
		pieces = append(pieces, fmt.Sprintf(`realm="%s"`, esc(realm)))
	}
	if errorCode != "" {
		pieces = append(pieces, fmt.Sprintf(`error="%s"`, esc(errorCode)))
		if description != "" {
			pieces = append(pieces, fmt.Sprintf(`error_description="%s"`, esc(description)))
		}
	}
	if len(pieces) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(pieces, ", ")
}

// writeRejection answers r with rj. The body is JSON unless the client only
// accepts plain text: {"error":{"code":<status>,"message":"<reason>"}}.
func writeRejection(w http.ResponseWriter, r *http.Request, realm string, rj rejection) {
	if rj.status == http.StatusUnauthorized || rj.status == http.StatusForbidden || rj.status == http.StatusBadRequest {
		w.Header().Add(wwwAuthenticateHeader, buildBearerChallenge(realm, rj.errorCode, rj.message))
	}

	mt := jsonMediaType
	if r.Header.Get("Accept") != "" {
		if accepted, _, err := contenttype.GetAcceptableMediaType(r, errorMediaTypes); err == nil {
			mt = accepted
		}
	}

	if mt.Type == textMediaType.Type && mt.Subtype == textMediaType.Subtype {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(rj.status)
		_, _ = io.WriteString(w, rj.message+"\n")
		return
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(rj.status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": rj.status, "message": rj.message}})
}
