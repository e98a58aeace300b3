// Package settings decodes the Keycloak section of an application's
// configuration tree.
//
// The section lives under settings.keycloak_settings:
//
//	settings:
//	  keycloak_settings:
//	    url: "https://sso.example.com"
//	    realm: "myrealm"
//	    expected_audiences:
//	      - "account"
//	    passthrough_mode: "Block" # or "Pass"
//	    persist_raw_claims: false
//
// Every key is required and must have the right type: a quoted "true" is not
// a boolean and 123 is not a realm name. Values are otherwise decoded
// structurally only: the server URL is not checked here.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ggoodman/keycloak-auth-go/keycloak"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// KeycloakSettings configures the Keycloak authentication layer.
type KeycloakSettings struct {
	// URL is the Keycloak server base URL, e.g. https://sso.example.com.
	URL string `json:"url" yaml:"url" jsonschema:"description=Keycloak server base URL"`
	// Realm is the Keycloak realm name.
	Realm string `json:"realm" yaml:"realm" jsonschema:"description=Keycloak realm name"`
	// ExpectedAudiences lists accepted aud values, typically ["account"].
	ExpectedAudiences []string `json:"expected_audiences" yaml:"expected_audiences" jsonschema:"description=Accepted token audiences"`
	// PassthroughMode is Block (reject with 401) or Pass (forward and record
	// the status in the request context).
	PassthroughMode PassthroughMode `json:"passthrough_mode" yaml:"passthrough_mode"`
	// PersistRawClaims keeps the raw token claims in the request context.
	PersistRawClaims bool `json:"persist_raw_claims" yaml:"persist_raw_claims" jsonschema:"description=Expose raw token claims to handlers"`
}

// Audiences returns a copy of ExpectedAudiences.
func (s KeycloakSettings) Audiences() []string {
	return append([]string(nil), s.ExpectedAudiences...)
}

// Settings is the root of the application's custom settings tree.
type Settings struct {
	KeycloakSettings KeycloakSettings `json:"keycloak_settings" yaml:"keycloak_settings"`
}

// rawKeycloakSettings mirrors KeycloakSettings with pointer fields so that
// absent keys can be told apart from zero values.
type rawKeycloakSettings struct {
	URL               *string          `json:"url" validate:"required"`
	Realm             *string          `json:"realm" validate:"required"`
	ExpectedAudiences *[]string        `json:"expected_audiences" validate:"required"`
	PassthroughMode   *PassthroughMode `json:"passthrough_mode" validate:"required"`
	PersistRawClaims  *bool            `json:"persist_raw_claims" validate:"required"`
}

type rawSettings struct {
	KeycloakSettings *rawKeycloakSettings `json:"keycloak_settings" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode turns a configuration tree into Settings. tree is typically the
// value found under the settings key of the application config.
func Decode(tree map[string]any) (*Settings, error) {
	// The tree goes through encoding/json so that scalars are never coerced.
	b, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var raw rawSettings
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return fromRaw(&raw)
}

// Unmarshal parses a YAML (or JSON) document holding the settings tree.
func Unmarshal(doc []byte) (*Settings, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(doc, &tree); err != nil {
		return nil, err
	}
	return Decode(tree)
}

func fromRaw(raw *rawSettings) (*Settings, error) {
	if err := validate.Struct(raw); err != nil {
		return nil, missingFieldError(err)
	}
	ks := raw.KeycloakSettings
	return &Settings{KeycloakSettings: KeycloakSettings{
		URL:               *ks.URL,
		Realm:             *ks.Realm,
		ExpectedAudiences: append([]string{}, (*ks.ExpectedAudiences)...),
		PassthroughMode:   *ks.PassthroughMode,
		PersistRawClaims:  *ks.PersistRawClaims,
	}}, nil
}

func missingFieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	// Report the first missing key, outermost first, like a streaming decoder would.
	return fmt.Errorf("missing field `%s`", verrs[0].Field())
}

// JSONSchema returns the JSON Schema of Settings.
func JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(new(Settings))
}

// Mode returns the library passthrough mode.
func (s KeycloakSettings) Mode() keycloak.PassthroughMode { return s.PassthroughMode.Mode }
