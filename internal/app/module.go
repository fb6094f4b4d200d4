package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/gofleet/internal/idgen"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.idgen.enabled") {
		closer, err := idgen.New(idgen.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			Redis:     a.redis,
		})
		if err != nil {
			slog.Error("failed to init module idgen", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["IDGen"] = closer
		}
	}
}
