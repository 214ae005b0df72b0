package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appai "github.com/bryanwahyu/quantum-vault/internal/application/ai"
	"github.com/bryanwahyu/quantum-vault/internal/application/dashboard"
	domai "github.com/bryanwahyu/quantum-vault/internal/domain/ai"
	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
	"github.com/bryanwahyu/quantum-vault/internal/middleware"
)

const maxBodyBytes = 1 << 20

// Options carries the cross-cutting pieces the router mounts around handlers.
type Options struct {
	AllowedOrigins []string
	// RateLimitCapacity and RateLimitRefill configure the per-IP bucket on the
	// model-backed routes. A zero capacity disables limiting.
	RateLimitCapacity int
	RateLimitRefill   int
	HealthCheckers    map[string]middleware.HealthChecker
	Ready             func() bool
	Log               *logrus.Entry
}

type Router struct {
	dashSvc *dashboard.Service
	aiSvc   *appai.Service
	log     *logrus.Entry
}

func NewRouter(dashSvc *dashboard.Service, aiSvc *appai.Service, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Router{dashSvc: dashSvc, aiSvc: aiSvc, log: log.WithField("component", "http")}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(r.log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(opts.Ready))
	mux.Get("/metrics", middleware.MetricsHandler)

	limited := func(h http.Handler) http.Handler { return h }
	if opts.RateLimitCapacity > 0 {
		limited = middleware.RateLimit(opts.RateLimitCapacity, opts.RateLimitRefill)
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/dashboard/summary", r.wrap(r.handleSummary))
		rt.Get("/dashboard/heatmap", r.wrap(r.handleHeatmap))
		rt.Get("/dashboard/burndown", r.wrap(r.handleBurndown))
		rt.Get("/targets", r.wrap(r.handleTargets))
		rt.Get("/threats", r.wrap(r.handleThreats))
		rt.Get("/vulnerabilities", r.wrap(r.handleVulnerabilities))
		rt.Get("/vulnerabilities/{id}", r.wrap(r.handleVulnerability))
		rt.Post("/exploitability", r.wrap(r.handleExploitability))
		rt.Post("/aggregate", r.wrap(r.handleAggregate))

		rt.With(limited).Post("/vulnerabilities/{id}/remediation", r.wrap(r.handleRemediation))
		rt.With(limited).Post("/scans", r.wrap(r.handleScan))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		// Upstream faults are matched first: a malformed model answer or a
		// corrupt stored row may wrap a validation sentinel.
		switch {
		case errors.Is(err, domai.ErrMalformedResponse), errors.Is(err, domai.ErrEmptyResponse):
			r.log.WithError(err).WithField("path", req.URL.Path).Warn("unusable ai response")
			http.Error(w, "ai provider returned an unusable response", http.StatusBadGateway)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, vulns.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, middleware.ErrInvalidInput), vulns.IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			r.log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decode(w http.ResponseWriter, req *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: request body: %w", middleware.ErrInvalidInput, err)
	}
	return nil
}

// GET /v1/dashboard/summary?target=
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	target := req.URL.Query().Get("target")
	if target != "" {
		if err := middleware.ValidateID(target); err != nil {
			return err
		}
	}
	summary, err := r.dashSvc.Summary(req.Context(), target)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

// GET /v1/dashboard/heatmap
func (r *Router) handleHeatmap(w http.ResponseWriter, req *http.Request) error {
	rows, err := r.dashSvc.Heatmap(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, rows)
}

// GET /v1/dashboard/burndown?days=7
func (r *Router) handleBurndown(w http.ResponseWriter, req *http.Request) error {
	days := 0
	if v := req.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			return fmt.Errorf("%w: days must be between 1 and 365", middleware.ErrInvalidInput)
		}
		days = n
	}
	points, err := r.dashSvc.Burndown(req.Context(), days)
	if err != nil {
		return err
	}
	return writeJSON(w, points)
}

// GET /v1/targets
func (r *Router) handleTargets(w http.ResponseWriter, req *http.Request) error {
	targets, err := r.dashSvc.Targets(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, targets)
}

// GET /v1/threats
func (r *Router) handleThreats(w http.ResponseWriter, req *http.Request) error {
	threats, err := r.dashSvc.Threats(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, threats)
}

// GET /v1/vulnerabilities?status=&severity=&target=
func (r *Router) handleVulnerabilities(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	var f dashboard.Filter
	if v := q.Get("target"); v != "" {
		if err := middleware.ValidateID(v); err != nil {
			return err
		}
		f.TargetID = v
	}
	if v := q.Get("status"); v != "" {
		st, err := vulns.ParseStatus(v)
		if err != nil {
			return err
		}
		f.Status = st
	}
	if v := q.Get("severity"); v != "" {
		sev, err := vulns.ParseSeverity(v)
		if err != nil {
			return err
		}
		f.Severity = sev
	}

	list, err := r.dashSvc.Vulnerabilities(req.Context(), f)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/vulnerabilities/{id}
func (r *Router) handleVulnerability(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return err
	}
	rec, err := r.dashSvc.Vulnerability(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, rec)
}

// POST /v1/vulnerabilities/{id}/remediation
// Body (optional): {"target_language": "go"}
func (r *Router) handleRemediation(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return err
	}
	var body struct {
		TargetLanguage string `json:"target_language"`
	}
	if err := decode(w, req, &body, true); err != nil {
		return err
	}
	lang := middleware.SanitizeString(body.TargetLanguage)
	if err := middleware.ValidateLanguage(lang); err != nil {
		return err
	}

	res, err := r.aiSvc.Remediate(req.Context(), id, lang)
	if errors.Is(err, vulns.ErrNotFound) {
		return err
	}
	middleware.RecordRemediation(err != nil)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// POST /v1/scans
// Body: {"url": "https://shop.example.com/product?id=1"}
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	target := strings.TrimSpace(body.URL)
	if err := middleware.ValidateURL(target); err != nil {
		return err
	}

	report, err := r.aiSvc.ScanURL(req.Context(), target)
	middleware.RecordScan(err != nil)
	if err != nil {
		return err
	}
	return writeJSON(w, report)
}

// POST /v1/exploitability
// Body: {"cvss": 9.8, "asset_type": "API", "patch_available": false}
func (r *Router) handleExploitability(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		CVSS           *float64 `json:"cvss"`
		AssetType      string   `json:"asset_type"`
		PatchAvailable bool     `json:"patch_available"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	if body.CVSS == nil {
		return fmt.Errorf("%w: cvss is required", middleware.ErrInvalidInput)
	}
	asset, err := vulns.ParseAssetType(body.AssetType)
	if err != nil {
		return err
	}
	idx, err := vulns.ComputeExploitabilityIndex(*body.CVSS, asset, body.PatchAvailable)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"cvss":                 *body.CVSS,
		"asset_type":           asset,
		"patch_available":      body.PatchAvailable,
		"exploitability_index": idx,
	})
}

type checkBody struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	RiskLevel string `json:"risk_level"`
	Details   string `json:"details"`
}

// POST /v1/aggregate
// Body: {"vulnerabilities": [...], "checks": [...], "critical_scope": "subset"}
// Records and checks may be mixed; the call fails as a whole on the first
// malformed item.
func (r *Router) handleAggregate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Vulnerabilities []vulns.RawRecord `json:"vulnerabilities"`
		Checks          []checkBody       `json:"checks"`
		CriticalScope   string            `json:"critical_scope"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}

	var scope vulns.CriticalScope
	switch strings.ToLower(body.CriticalScope) {
	case "", "subset":
		scope = vulns.CriticalInSubset
	case "collection":
		scope = vulns.CriticalInCollection
	default:
		return fmt.Errorf("%w: critical_scope must be subset or collection", middleware.ErrInvalidInput)
	}

	items := make([]vulns.Observable, 0, len(body.Vulnerabilities)+len(body.Checks))
	for _, raw := range body.Vulnerabilities {
		rec, err := vulns.NewVulnerabilityRecord(raw)
		if err != nil {
			return err
		}
		items = append(items, rec)
	}
	for i, c := range body.Checks {
		check, err := vulns.NewCheckResult(c.Name, c.Passed, c.RiskLevel, c.Details)
		if err != nil {
			return fmt.Errorf("check %d: %w", i, err)
		}
		items = append(items, check)
	}

	m, err := vulns.AggregateWithScope(items, scope)
	if err != nil {
		return err
	}
	return writeJSON(w, m)
}
