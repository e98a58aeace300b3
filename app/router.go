package app

import (
	"net/http"
	"slices"

	"github.com/ggoodman/keycloak-auth-go/internal/logctx"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// Router dispatches requests through its middleware layers to a ServeMux.
//
// Layer returns a new Router sharing the route table, so a router value is
// never mutated by attaching middleware. Routes registered on any router
// derived from the same NewRouter call are visible to all of them.
type Router struct {
	mux     *http.ServeMux
	layers  []func(http.Handler) http.Handler
	handler http.Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	r := &Router{mux: http.NewServeMux()}
	r.handler = r.compose()
	return r
}

// Handle registers h for pattern (http.ServeMux syntax).
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// HandleFunc registers f for pattern (http.ServeMux syntax).
func (r *Router) HandleFunc(pattern string, f func(http.ResponseWriter, *http.Request)) {
	r.mux.HandleFunc(pattern, f)
}

// Layer returns a Router with mw wrapped around every route. Layers added
// later run first.
func (r *Router) Layer(mw func(http.Handler) http.Handler) *Router {
	nr := &Router{mux: r.mux, layers: append(slices.Clone(r.layers), mw)}
	nr.handler = nr.compose()
	return nr
}

// Layers reports how many middleware layers are attached.
func (r *Router) Layers() int { return len(r.layers) }

func (r *Router) compose() http.Handler {
	var h http.Handler = r.mux
	for _, mw := range r.layers {
		h = mw(h)
	}
	return withRequestData(h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// withRequestData tags each request with an id (reusing X-Request-Id when
// the client sent one) so log records from any layer can be correlated.
func withRequestData(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logctx.WithRequestData(req.Context(), &logctx.RequestData{
			RequestID:  id,
			Method:     req.Method,
			UserAgent:  req.UserAgent(),
			RemoteAddr: req.RemoteAddr,
			Path:       req.URL.Path,
		})
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
