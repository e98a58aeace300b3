// Package ginkeycloak adapts a keycloak.Layer to gin.
package ginkeycloak

import (
	"net/http"

	"github.com/ggoodman/keycloak-auth-go/keycloak"
	"github.com/gin-gonic/gin"
)

// TokenKey is the gin context key holding the verified *keycloak.Token.
const TokenKey = "keycloak.token"

// Middleware runs layer in front of the remaining handlers. When the layer
// rejects the request the response is already written and the chain is
// aborted.
func Middleware(layer *keycloak.Layer) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		h := layer.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		}))
		h.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
			return
		}
		if tok, ok := keycloak.TokenFromContext(c.Request.Context()); ok {
			c.Set(TokenKey, tok)
		}
		c.Next()
	}
}

// Token returns the verified token, if any.
func Token(c *gin.Context) (*keycloak.Token, bool) {
	v, ok := c.Get(TokenKey)
	if !ok {
		return nil, false
	}
	tok, ok := v.(*keycloak.Token)
	return tok, ok
}

// Status returns the authentication outcome recorded by the layer.
func Status(c *gin.Context) (keycloak.Status, bool) {
	return keycloak.StatusFromContext(c.Request.Context())
}
