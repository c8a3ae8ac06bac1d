package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/middleware/ratelimit"
	"presupuesto/internal/middleware/security"
	"presupuesto/internal/middleware/trace"
	"presupuesto/internal/services"
	appweb "presupuesto/web"
)

// Options configures the middleware stack of a Server.
type Options struct {
	CORSOrigins []string
	// RateLimit is the per-IP budget of mutating requests per minute; 0 disables.
	RateLimit int
	Logger    *applog.Logger
	Location  *time.Location
}

// Server is the JSON API plus the embedded dashboard page.
type Server struct {
	http.Server

	entries   *services.EntryService
	analysis  *services.AnalysisService
	parser    *RequestParser
	templates *template.Template
	loc       *time.Location
	logger    *applog.Logger
	started   time.Time

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	trace        *trace.Middleware
	shutdownOnce sync.Once
}

// templateFuncs are the helpers dashboard.html formats figures with.
var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.Format() },
	"pct": func(p core.Percentage) string {
		if !p.Defined() {
			return "–"
		}
		return strconv.FormatFloat(float64(p), 'f', 1, 64) + "%"
	},
	"month": func(p core.Period) int { return int(p.Month) },
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, entries *services.EntryService, analysis *services.AnalysisService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Default(applog.ComponentHTTP)
	}
	loc := opts.Location
	if loc == nil {
		loc = analysis.Location()
	}

	s := &Server{
		entries:  entries,
		analysis: analysis,
		parser:   NewRequestParser(loc),
		loc:      loc,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		started:  time.Now(),
		detector: security.NewDetector(),
	}
	s.trace = trace.NewMiddleware(s.detector.ExtractClientIP)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(s.trace.Middleware)
	r.Use(applog.RequestIDMiddleware(trace.RequestID))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(security.NewCORS(opts.CORSOrigins).Middleware)
	if opts.RateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit})
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingOnly, func(w http.ResponseWriter, _ *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		}))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/ingresos", func(r chi.Router) {
			r.Get("/", s.handleListIncomes)
			r.Post("/", s.handleCreateIncome)
			r.Get("/{id}", s.handleGetIncome)
			r.Put("/{id}", s.handleUpdateIncome)
			r.Delete("/{id}", s.handleDeleteIncome)
		})
		r.Route("/gastos", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/{id}", s.handleGetExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})
		r.Get("/analisismensual", s.handleMonthlyAnalysis)
		r.Get("/comparacionmeses", s.handleCompareMonths)
		r.Get("/exportar", s.handleExport)
		r.Get("/dashboard", s.handleDashboard)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
