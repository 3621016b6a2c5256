package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	kycHandler "investgate/internal/kyc/handler"
	orderHandler "investgate/internal/order/handler"
	registerHandler "investgate/internal/register/handler"
	"investgate/pkg/platform/httputil"
)

// HealthChecker is implemented by the backing stores that can report
// liveness. Nil-valued entries are skipped so optional backends do not
// fail the probe.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects everything the router mounts.
type Deps struct {
	Register *registerHandler.Handler
	KYC      *kycHandler.Handler
	Orders   *orderHandler.Handler

	// Named health checks, reported individually on /healthz.
	Checks map[string]HealthChecker
}

// NewRouter wires the public surface: the three flow handlers plus the
// operational endpoints. Per-domain middleware lives inside each
// handler's Register, not here.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	deps.Register.Register(r)
	deps.KYC.Register(r)
	deps.Orders.Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(deps.Checks))

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string)}
		status := http.StatusOK
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
