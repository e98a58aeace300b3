package keycloak

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authentication outcomes per result label: ok,
// missing_token, malformed_header, invalid_token, missing_role,
// discovery_failed, error.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the keycloak_auth_requests_total counter with reg. If
// an identical collector is already registered it is reused, so several
// layers can share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keycloak",
		Subsystem: "auth",
		Name:      "requests_total",
		Help:      "Requests seen by the Keycloak authentication layer, by result.",
	}, []string{"result"})
	if reg != nil {
		if err := reg.Register(requests); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			requests = existing
		}
	}
	return &Metrics{requests: requests}, nil
}

func (m *Metrics) observe(err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrMissingRole):
		return "missing_role"
	case errors.Is(err, ErrDiscovery):
		return "discovery_failed"
	default:
		return "error"
	}
}
