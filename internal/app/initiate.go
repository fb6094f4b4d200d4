package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()
}

func (a *App) initResources() {
	if !a.config.GetBool("idgen.store.enabled") {
		slog.Warn("coordination store disabled, id generation runs in degraded mode")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.config.GetString("idgen.store.address"),
		Password: a.config.GetString("idgen.store.password"),
		DB:       int(a.config.GetInt("idgen.store.db")),
	})

	ctx, cancel := context.WithTimeout(a.ctx, 3*time.Second)
	defer cancel()

	// An unreachable store at startup is not fatal; the coordinator falls
	// back to a hash-derived slot and heartbeats retry on their own.
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("coordination store unreachable at startup", "error", err)
	}

	a.redis = client
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

//nolint:unparam // is always nil
func (a *App) initClosers() {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
	if a.redis != nil {
		a.closerFn["Redis"] = func(context.Context) error {
			return a.redis.Close()
		}
	}
}
