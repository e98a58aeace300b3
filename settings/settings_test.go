package settings

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ggoodman/keycloak-auth-go/keycloak"
)

func validTree() map[string]any {
	return map[string]any{
		"keycloak_settings": map[string]any{
			"url":                "https://sso.example.com",
			"realm":              "myrealm",
			"expected_audiences": []any{"account"},
			"passthrough_mode":   "Block",
			"persist_raw_claims": false,
		},
	}
}

func TestParsePassthroughMode(t *testing.T) {
	tests := []struct {
		in   string
		want keycloak.PassthroughMode
	}{
		{"Block", keycloak.PassthroughModeBlock},
		{"block", keycloak.PassthroughModeBlock},
		{"BLOCK", keycloak.PassthroughModeBlock},
		{"bLoCk", keycloak.PassthroughModeBlock},
		{"Pass", keycloak.PassthroughModePass},
		{"pass", keycloak.PassthroughModePass},
		{"PASS", keycloak.PassthroughModePass},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePassthroughMode(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePassthroughMode_Invalid(t *testing.T) {
	for _, in := range []string{"", "allow", "blocked", " pass", "Passthrough"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePassthroughMode(in)
			if !errors.Is(err, ErrInvalidPassthroughMode) {
				t.Fatalf("want ErrInvalidPassthroughMode, got %v", err)
			}
			if want := "invalid passthrough mode: " + in; err.Error() != want {
				t.Fatalf("error = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestDecode_Valid(t *testing.T) {
	s, err := Decode(validTree())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ks := s.KeycloakSettings
	if ks.URL != "https://sso.example.com" || ks.Realm != "myrealm" {
		t.Fatalf("unexpected url/realm: %+v", ks)
	}
	if !reflect.DeepEqual(ks.ExpectedAudiences, []string{"account"}) {
		t.Fatalf("audiences = %v", ks.ExpectedAudiences)
	}
	if ks.Mode() != keycloak.PassthroughModeBlock || ks.PersistRawClaims {
		t.Fatalf("unexpected mode/persist: %v %v", ks.Mode(), ks.PersistRawClaims)
	}
}

func TestDecode_PassAnyCase(t *testing.T) {
	tree := validTree()
	ks := tree["keycloak_settings"].(map[string]any)
	ks["passthrough_mode"] = "pASS"
	ks["persist_raw_claims"] = true

	s, err := Decode(tree)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.KeycloakSettings.Mode() != keycloak.PassthroughModePass || !s.KeycloakSettings.PersistRawClaims {
		t.Fatalf("unexpected settings: %+v", s.KeycloakSettings)
	}
}

func TestDecode_InvalidPassthroughMode(t *testing.T) {
	tree := validTree()
	tree["keycloak_settings"].(map[string]any)["passthrough_mode"] = "Sometimes"

	_, err := Decode(tree)
	if !errors.Is(err, ErrInvalidPassthroughMode) {
		t.Fatalf("want ErrInvalidPassthroughMode, got %v", err)
	}
	if !strings.Contains(err.Error(), "Sometimes") {
		t.Fatalf("error %q does not name the offending value", err)
	}
}

func TestDecode_MissingFields(t *testing.T) {
	for _, key := range []string{"url", "realm", "expected_audiences", "passthrough_mode", "persist_raw_claims"} {
		t.Run(key, func(t *testing.T) {
			tree := validTree()
			delete(tree["keycloak_settings"].(map[string]any), key)
			_, err := Decode(tree)
			if err == nil {
				t.Fatalf("expected error for missing %s", key)
			}
			if want := "missing field `" + key + "`"; err.Error() != want {
				t.Fatalf("error = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestDecode_MissingSection(t *testing.T) {
	for name, tree := range map[string]map[string]any{
		"nil":   nil,
		"empty": {},
		"other": {"mailer": map[string]any{"host": "smtp"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tree)
			if err == nil || err.Error() != "missing field `keycloak_settings`" {
				t.Fatalf("error = %v", err)
			}
		})
	}
}

func TestDecode_NoSemanticValidation(t *testing.T) {
	tree := validTree()
	ks := tree["keycloak_settings"].(map[string]any)
	ks["url"] = "not a url"
	ks["realm"] = ""
	ks["expected_audiences"] = []any{}

	s, err := Decode(tree)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.KeycloakSettings.URL != "not a url" || s.KeycloakSettings.Realm != "" {
		t.Fatalf("unexpected settings: %+v", s.KeycloakSettings)
	}
	if s.KeycloakSettings.ExpectedAudiences == nil || len(s.KeycloakSettings.ExpectedAudiences) != 0 {
		t.Fatalf("audiences = %#v", s.KeycloakSettings.ExpectedAudiences)
	}
}

func TestDecode_WrongShape(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"audiences map", "expected_audiences", map[string]any{"a": 1}},
		{"audiences ints", "expected_audiences", []any{1, 2}},
		{"audiences string", "expected_audiences", "account"},
		{"realm int", "realm", 123},
		{"url int", "url", 42},
		{"url list", "url", []any{"https://sso.example.com"}},
		{"persist string yes", "persist_raw_claims", "yes"},
		{"persist string true", "persist_raw_claims", "true"},
		{"persist int", "persist_raw_claims", 1},
		{"mode int", "passthrough_mode", 0},
		{"mode bool", "passthrough_mode", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := validTree()
			tree["keycloak_settings"].(map[string]any)[tt.key] = tt.value
			s, err := Decode(tree)
			if err == nil {
				t.Fatalf("expected structural error, got %+v", s.KeycloakSettings)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestDecode_SectionWrongShape(t *testing.T) {
	for name, v := range map[string]any{
		"string": "https://sso.example.com",
		"list":   []any{"a"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(map[string]any{"keycloak_settings": v}); err == nil {
				t.Fatalf("expected structural error")
			}
		})
	}
}

func TestUnmarshal_YAMLDocument(t *testing.T) {
	doc := []byte(`
keycloak_settings:
  url: "https://sso.example.com"
  realm: "myrealm"
  expected_audiences:
    - "account"
    - "api"
  passthrough_mode: "pass"
  persist_raw_claims: true
`)
	s, err := Unmarshal(doc)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := s.KeycloakSettings.Audiences(); !reflect.DeepEqual(got, []string{"account", "api"}) {
		t.Fatalf("audiences = %v", got)
	}
	if s.KeycloakSettings.Mode() != keycloak.PassthroughModePass {
		t.Fatalf("mode = %v", s.KeycloakSettings.Mode())
	}
}

func TestUnmarshal_YAMLNoCoercion(t *testing.T) {
	const base = `
keycloak_settings:
  url: https://sso.example.com
  expected_audiences: [account]
  passthrough_mode: block
`
	for name, extra := range map[string]string{
		"bare yes":    "  realm: myrealm\n  persist_raw_claims: yes\n",
		"quoted true": "  realm: myrealm\n  persist_raw_claims: \"true\"\n",
		"int realm":   "  realm: 123\n  persist_raw_claims: false\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(base + extra)); err == nil {
				t.Fatalf("expected error for:\n%s", extra)
			}
		})
	}
	if _, err := Unmarshal([]byte(base + "  realm: myrealm\n  persist_raw_claims: false\n")); err != nil {
		t.Fatalf("well-typed document rejected: %v", err)
	}
}

func TestKeycloakSettings_AudiencesCopy(t *testing.T) {
	s, err := Decode(validTree())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := s.KeycloakSettings.Audiences()
	got[0] = "mutated"
	if s.KeycloakSettings.ExpectedAudiences[0] != "account" {
		t.Fatalf("Audiences() aliases the settings slice")
	}
}

func TestPassthroughMode_JSON(t *testing.T) {
	var p PassthroughMode
	if err := json.Unmarshal([]byte(`"BLOCK"`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Mode != keycloak.PassthroughModeBlock {
		t.Fatalf("mode = %v", p.Mode)
	}
	b, err := json.Marshal(PassthroughMode{Mode: keycloak.PassthroughModePass})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"Pass"` {
		t.Fatalf("marshal = %s", b)
	}
}

func TestJSONSchema(t *testing.T) {
	s := JSONSchema()
	if s == nil || s.Properties == nil {
		t.Fatalf("schema missing properties")
	}
	ksProp, ok := s.Properties.Get("keycloak_settings")
	if !ok || ksProp.Properties == nil {
		t.Fatalf("keycloak_settings property missing")
	}
	mode, ok := ksProp.Properties.Get("passthrough_mode")
	if !ok {
		t.Fatalf("passthrough_mode property missing")
	}
	if !reflect.DeepEqual(mode.Enum, []any{"Block", "Pass"}) {
		t.Fatalf("passthrough_mode enum = %v", mode.Enum)
	}
	for _, key := range []string{"url", "realm", "expected_audiences", "persist_raw_claims"} {
		if _, ok := ksProp.Properties.Get(key); !ok {
			t.Fatalf("property %s missing", key)
		}
	}
}
