package keycloak

import "strconv"

// PassthroughMode decides what happens to requests that fail authentication.
type PassthroughMode int

const (
	// PassthroughModeBlock answers failed requests with an error response.
	PassthroughModeBlock PassthroughMode = iota
	// PassthroughModePass forwards failed requests and records the failure in
	// the request context.
	PassthroughModePass
)

func (m PassthroughMode) String() string {
	switch m {
	case PassthroughModeBlock:
		return "Block"
	case PassthroughModePass:
		return "Pass"
	default:
		return "PassthroughMode(" + strconv.Itoa(int(m)) + ")"
	}
}
