package keycloak

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "absent", header: "", want: ""},
		{name: "bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "surrounding space", header: "Bearer   abc  ", want: "abc"},
		{name: "basic", header: "Basic Zm9vOmJhcg==", wantErr: ErrMalformedHeader},
		{name: "scheme only", header: "Bearer", wantErr: ErrMalformedHeader},
		{name: "empty token", header: "Bearer    ", wantErr: ErrMalformedHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := AuthorizationHeader().Extract(req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tt.want {
				t.Fatalf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractToken_Order(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")

	got, err := extractToken(req, []TokenExtractor{QueryParam("token"), AuthorizationHeader()})
	if err != nil || got != "from-query" {
		t.Fatalf("got %q, %v", got, err)
	}
	got, err = extractToken(req, []TokenExtractor{AuthorizationHeader(), QueryParam("token")})
	if err != nil || got != "from-header" {
		t.Fatalf("got %q, %v", got, err)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := extractToken(bare, []TokenExtractor{AuthorizationHeader(), QueryParam("token")}); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("want ErrMissingToken, got %v", err)
	}
}

func TestBuildBearerChallenge(t *testing.T) {
	tests := []struct {
		realm, code, desc string
		want              string
	}{
		{"", "", "", "Bearer"},
		{"myrealm", "", "ignored without code", `Bearer realm="myrealm"`},
		{"myrealm", "invalid_token", "expired", `Bearer realm="myrealm", error="invalid_token", error_description="expired"`},
		{`we"ird`, "invalid_request", "", `Bearer realm="we\"ird", error="invalid_request"`},
	}
	for _, tt := range tests {
		if got := buildBearerChallenge(tt.realm, tt.code, tt.desc); got != tt.want {
			t.Errorf("buildBearerChallenge(%q, %q, %q) = %q, want %q", tt.realm, tt.code, tt.desc, got, tt.want)
		}
	}
}
