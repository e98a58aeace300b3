package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ggoodman/keycloak-auth-go/keycloak"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPassthroughMode is returned for a passthrough mode other than
// "block" or "pass" (in any casing).
var ErrInvalidPassthroughMode = errors.New("invalid passthrough mode")

// ParsePassthroughMode parses "block" or "pass", ignoring case.
func ParsePassthroughMode(s string) (keycloak.PassthroughMode, error) {
	switch strings.ToLower(s) {
	case "block":
		return keycloak.PassthroughModeBlock, nil
	case "pass":
		return keycloak.PassthroughModePass, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidPassthroughMode, s)
	}
}

// PassthroughMode is the configuration form of keycloak.PassthroughMode.
type PassthroughMode struct {
	Mode keycloak.PassthroughMode
}

func (p *PassthroughMode) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return p.UnmarshalText([]byte(s))
}

func (p *PassthroughMode) UnmarshalText(text []byte) error {
	m, err := ParsePassthroughMode(string(text))
	if err != nil {
		return err
	}
	p.Mode = m
	return nil
}

func (p PassthroughMode) MarshalText() ([]byte, error) {
	return []byte(p.Mode.String()), nil
}

func (p PassthroughMode) String() string { return p.Mode.String() }

func (PassthroughMode) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        []any{"Block", "Pass"},
		Description: "Block rejects unauthenticated requests, Pass forwards them and records the status. Case-insensitive.",
	}
}
