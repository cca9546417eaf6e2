package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/httpx/middlewares"
)

// NewRouter mounts every route on a chi router. metrics may be nil, in which
// case /metrics is not served.
func NewRouter(handler *Handler, metrics *middlewares.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.AttachRequestID)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	if metrics != nil {
		r.Use(metrics.Handler)
	}

	r.Get("/", handler.Index)
	r.Get("/script.js", serveScript)
	r.Post("/submit", handler.Submit)
	r.Get("/orders/{code}", handler.GetReceipt)
	r.Get("/api/orders/{code}", handler.GetOrder)
	r.Get("/healthz", handler.Health)
	if metrics != nil && gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return otelhttp.NewHandler(r, "laundry-http",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}

func serveScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	http.ServeFileFS(w, r, webFS, "web/script.js")
}
