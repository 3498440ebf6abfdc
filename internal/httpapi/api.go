package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/application"
	"rentflow.app/internal/blob"
	"rentflow.app/internal/obs"
)

// ReadyProbe reports readiness, backed by a DB ping when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the API's tunables.
type Options struct {
	Version        string
	MaxUploadBytes int64
	RateBurst      int
	RatePerSecond  int
}

// API is the HTTP layer over the agent and application services.
type API struct {
	mux        *http.ServeMux
	agents     *agent.Service
	apps       *application.Service
	blobs      blob.Store
	readyProbe ReadyProbe
	opts       Options
}

func New(agents *agent.Service, apps *application.Service, blobs blob.Store, rp ReadyProbe, opts Options) *API {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 50
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 25
	}
	a := &API{
		mux:        http.NewServeMux(),
		agents:     agents,
		apps:       apps,
		blobs:      blobs,
		readyProbe: rp,
		opts:       opts,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	// applications and links
	a.mux.HandleFunc("/api/v1/applications", a.handleApplicationsCollection)
	a.mux.HandleFunc("/api/v1/applications/", a.handleApplicationsResource)

	// analytics
	a.mux.HandleFunc("/api/v1/analytics/dashboard", a.handleDashboard)
	a.mux.HandleFunc("/api/v1/analytics/weekly-submissions", a.handleSubmissions)

	// agent profile
	a.mux.HandleFunc("/api/v1/agent/settings", a.handleSettings)
	a.mux.HandleFunc("/api/v1/agent/settings/logo", a.handleLogoUpload)
	a.mux.HandleFunc("/api/v1/agent/settings/background", a.handleBackgroundUpload)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.opts.MaxUploadBytes)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSecond)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "rentflow-api",
		"version": a.opts.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "rentflow-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.opts.Version,
	})
}
