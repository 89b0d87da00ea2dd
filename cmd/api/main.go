// cmd/api is the admin/health HTTP surface: a REST CRUD facade over
// the domain is a Non-goal (SPEC_FULL §B), but health, readiness, and
// metrics endpoints are kept on the root router without auth. Only
// /api/v1/whoami sits behind the auth and tenant middleware the
// hexagonal handlers used, so this process still exercises the
// Keycloak JWKS and tenant-context wiring end to end.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"log/slog"

	"github.com/orchestrix/telemetry-core/internal/adapter/driven/postgres"
	"github.com/orchestrix/telemetry-core/internal/auth"
	"github.com/orchestrix/telemetry-core/pkg/config"
	"github.com/orchestrix/telemetry-core/pkg/database"
	"github.com/orchestrix/telemetry-core/pkg/httputil"
	"github.com/orchestrix/telemetry-core/pkg/observability"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, "json")
	observability.InitMetrics("telemetry_core")

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("api.database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	tenantSetter := postgres.NewTenantContextSetter(pool)

	authMiddleware := auth.NewMiddleware(auth.Config{
		KeycloakURL: getEnv("KEYCLOAK_URL", "http://localhost:8180"),
		Realm:       getEnv("KEYCLOAK_REALM", "telemetry-core"),
		ClientID:    getEnv("KEYCLOAK_CLIENT_ID", "telemetry-core-api"),
		SkipPaths:   []string{"/health", "/metrics"},
	})
	tenantMiddleware := auth.NewTenantMiddleware(tenantSetter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler)
	r.Get("/health/live", livenessHandler)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			httputil.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", observability.Handler())

	// Authenticated admin group: holds only /api/v1/whoami (the REST
	// CRUD facade is a Non-goal), which keeps the auth/tenant
	// middleware exercised.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(tenantMiddleware.Handler)

		r.Get("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request) {
			user := auth.FromContext(r.Context())
			if user == nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			httputil.JSON(w, http.StatusOK, user)
		})
	})

	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api.starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api.server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("api.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("api.shutdown_forced", "error", err)
	}
	slog.Info("api.exited")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func livenessHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
