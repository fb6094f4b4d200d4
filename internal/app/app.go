package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkglog"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	goroutine *pkgroutine.Manager

	// resources
	redis *redis.Client

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	//
	closerFn map[string]func(context.Context) error
}

func New() *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initLibraries()
	app.initResources()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
