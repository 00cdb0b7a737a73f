package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-quoting/internal/audit"
	"github.com/noah-isme/backend-quoting/internal/config"
	"github.com/noah-isme/backend-quoting/internal/db"
	"github.com/noah-isme/backend-quoting/internal/health"
	"github.com/noah-isme/backend-quoting/internal/markup"
	"github.com/noah-isme/backend-quoting/internal/obs"
	"github.com/noah-isme/backend-quoting/internal/project"
	"github.com/noah-isme/backend-quoting/internal/quote"
	"github.com/noah-isme/backend-quoting/internal/ratelimit"
	"github.com/noah-isme/backend-quoting/internal/rfq"
	"github.com/noah-isme/backend-quoting/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "quoting")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, "quoting-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	store := db.New(pool)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	}

	validate := validator.New()

	markupSvc := &markup.Service{
		Q:     store,
		Pool:  pool,
		Cache: markup.NewCache(redisClient, cfg.SchemaCacheTTL),
	}
	markupHandler := &markup.Handler{Svc: markupSvc, Validate: validate}

	quoteSvc := &quote.Service{
		Q:               store,
		Tx:              quote.PoolTx{Pool: pool},
		Schemas:         markupSvc,
		DefaultCategory: cfg.DefaultCategory,
		NumberRetries:   cfg.QuoteNumberRetries,
	}
	quoteHandler := &quote.Handler{Svc: quoteSvc, Validate: validate}

	projectSvc := &project.Service{Q: store}
	projectHandler := &project.Handler{Svc: projectSvc, Validate: validate}

	rfqSvc := &rfq.Service{Q: store}
	rfqHandler := &rfq.Handler{Svc: rfqSvc, Validate: validate}

	auditSvc := audit.Service{Q: store, Enabled: envBool("AUDIT_ENABLED", true)}
	auditRecorder := audit.HTTPRecorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}
	auditHandler := audit.Handler{Store: store}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{
		Enable:     envBool("SECURE_HEADERS_ENABLED", true),
		EnableHSTS: envBool("SECURE_HSTS_ENABLED", false),
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("SECURE_MAX_BODY_BYTES", 1<<20))}.Middleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Probes{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/projects", func(p chi.Router) {
			p.Post("/", projectHandler.Create)
			p.Get("/", projectHandler.List)
			p.Get("/{id}", projectHandler.Get)
		})

		v.Route("/rfqs", func(q chi.Router) {
			q.Post("/", rfqHandler.Create)
			q.Get("/", rfqHandler.List)
			q.Get("/{id}", rfqHandler.Get)
			q.Post("/{id}/supplier-quotes", rfqHandler.AddSupplierQuote)
			q.Get("/{id}/supplier-quotes", rfqHandler.ListSupplierQuotes)
		})

		v.Route("/markup-schemas", func(m chi.Router) {
			m.With(auditRecorder.Middleware(audit.HTTPConfig{
				Action:       "markup_schema.create",
				ResourceType: "markup_schema",
			})).Post("/", markupHandler.Create)
			m.Get("/", markupHandler.List)
			m.Get("/{id}", markupHandler.Get)
			m.With(auditRecorder.Middleware(audit.HTTPConfig{
				Action:          "markup_schema.activate",
				ResourceType:    "markup_schema",
				ResourceIDParam: "id",
			})).Post("/{id}/activate", markupHandler.Activate)
		})

		v.Route("/quotes", func(q chi.Router) {
			if redisClient != nil {
				q.Use(ratelimit.Handler{
					Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "quoting:ratelimit:"},
					Config: ratelimit.Config{
						Key:    ratelimit.KeyByIP("quotes"),
						Window: envDurationMillis("RATE_LIMIT_WINDOW_MS", 60000),
						Max:    envInt("RATE_LIMIT_MAX", 120),
					},
					OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
				}.Middleware)
			}
			q.Post("/preview", quoteHandler.Preview)
			q.With(auditRecorder.Middleware(audit.HTTPConfig{
				Action:       "quote.finalize",
				ResourceType: "customer_quote",
			})).Post("/finalize", quoteHandler.Finalize)
			q.Get("/", quoteHandler.List)
			q.Get("/{id}", quoteHandler.Get)
		})

		v.Get("/audit-logs", auditHandler.List)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		health.SetReady(false)
		drain, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(drain); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
