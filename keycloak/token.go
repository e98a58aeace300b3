package keycloak

import (
	"slices"
	"sort"
	"time"

	"github.com/ggoodman/keycloak-auth-go/internal/jwtauth"
	"github.com/golang-jwt/jwt/v5"
)

// Role is a Keycloak role. Client is empty for realm roles.
type Role struct {
	Client string
	Name   string
}

func (r Role) String() string {
	if r.Client == "" {
		return r.Name
	}
	return r.Client + ":" + r.Name
}

// Token is a verified Keycloak access token.
type Token struct {
	Subject           string
	Issuer            string
	Audience          []string
	AuthorizedParty   string
	ExpiresAt         time.Time
	IssuedAt          time.Time
	PreferredUsername string
	Email             string
	EmailVerified     bool
	GivenName         string
	FamilyName        string
	FullName          string
	Scope             string
	RealmRoles        []string
	ClientRoles       map[string][]string
}

type access struct {
	Roles []string `json:"roles"`
}

type keycloakClaims struct {
	Issuer            string            `json:"iss"`
	Audience          jwt.ClaimStrings  `json:"aud"`
	AuthorizedParty   string            `json:"azp"`
	ExpiresAt         *jwt.NumericDate  `json:"exp"`
	IssuedAt          *jwt.NumericDate  `json:"iat"`
	PreferredUsername string            `json:"preferred_username"`
	Email             string            `json:"email"`
	EmailVerified     bool              `json:"email_verified"`
	GivenName         string            `json:"given_name"`
	FamilyName        string            `json:"family_name"`
	Name              string            `json:"name"`
	Scope             string            `json:"scope"`
	RealmAccess       access            `json:"realm_access"`
	ResourceAccess    map[string]access `json:"resource_access"`
}

func tokenFromClaims(c *jwtauth.Claims) (*Token, error) {
	var kc keycloakClaims
	if err := c.Decode(&kc); err != nil {
		return nil, err
	}
	t := &Token{
		Subject:           c.Subject,
		Issuer:            kc.Issuer,
		Audience:          []string(kc.Audience),
		AuthorizedParty:   kc.AuthorizedParty,
		PreferredUsername: kc.PreferredUsername,
		Email:             kc.Email,
		EmailVerified:     kc.EmailVerified,
		GivenName:         kc.GivenName,
		FamilyName:        kc.FamilyName,
		FullName:          kc.Name,
		Scope:             kc.Scope,
		RealmRoles:        kc.RealmAccess.Roles,
	}
	if kc.ExpiresAt != nil {
		t.ExpiresAt = kc.ExpiresAt.Time
	}
	if kc.IssuedAt != nil {
		t.IssuedAt = kc.IssuedAt.Time
	}
	if len(kc.ResourceAccess) > 0 {
		t.ClientRoles = make(map[string][]string, len(kc.ResourceAccess))
		for client, a := range kc.ResourceAccess {
			t.ClientRoles[client] = a.Roles
		}
	}
	return t, nil
}

// HasRealmRole reports whether the token carries the realm role name.
func (t *Token) HasRealmRole(name string) bool {
	return slices.Contains(t.RealmRoles, name)
}

// HasClientRole reports whether the token carries role name for client.
func (t *Token) HasClientRole(client, name string) bool {
	return slices.Contains(t.ClientRoles[client], name)
}

// HasRole reports whether name is a realm role or a role of any client.
func (t *Token) HasRole(name string) bool {
	if t.HasRealmRole(name) {
		return true
	}
	for _, roles := range t.ClientRoles {
		if slices.Contains(roles, name) {
			return true
		}
	}
	return false
}

// Roles returns realm roles followed by client roles ordered by client id.
func (t *Token) Roles() []Role {
	out := make([]Role, 0, len(t.RealmRoles))
	for _, r := range t.RealmRoles {
		out = append(out, Role{Name: r})
	}
	clients := make([]string, 0, len(t.ClientRoles))
	for c := range t.ClientRoles {
		clients = append(clients, c)
	}
	sort.Strings(clients)
	for _, c := range clients {
		for _, r := range t.ClientRoles[c] {
			out = append(out, Role{Client: c, Name: r})
		}
	}
	return out
}
