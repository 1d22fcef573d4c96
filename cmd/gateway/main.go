package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	api "github.com/mind-engage/mindengage-judging/internal/api/http"
	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/db"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/expertise"
	"github.com/mind-engage/mindengage-judging/internal/metrics"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/report"
	syncx "github.com/mind-engage/mindengage-judging/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	// --- Stores + services ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	crit := criteria.NewSQLStore(dbh)
	projs := projects.NewSQLStore(dbh)
	evals := evaluation.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)

	svc := &evaluation.Service{
		Evals:    evals,
		Criteria: crit,
		Projects: projs,
		Events:   events,
		Metrics:  m,
		SiteID:   cfg.SiteID,
	}
	reports := &report.Builder{
		Criteria:    crit,
		Projects:    projs,
		Evals:       evals,
		Concurrency: cfg.ReportConcurrency,
		Metrics:     m,
	}
	grades := &report.Grades{Projects: projs, Criteria: crit, Evals: evals}

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableMetrics {
		r.Use(m.Instrument)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	api.Health(r, dbh)
	api.Mount(r, api.Deps{
		DB:          dbh,
		Auth:        authSvc,
		Criteria:    crit,
		Expertise:   expertise.NewSQLStore(dbh),
		Projects:    projs,
		Evaluations: evals,
		Service:     svc,
		Reports:     reports,
		Grades:      grades,
		Events:      events,
		DefaultLang: cfg.DefaultLang,
		RoleFromDB:  true,
		// offline installs keep working off the token when the users table is
		// being reloaded
		ClaimFallback: cfg.Mode == config.ModeOffline,
	})

	log.Printf("listening on %s (mode=%s, db=%s, site=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.SiteID)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
