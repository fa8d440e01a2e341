package app

import (
	"context"

	"log/slog"

	"github.com/assolib/assolib-manager/config"
	httpapi "github.com/assolib/assolib-manager/internal/api/http"
	"github.com/assolib/assolib-manager/internal/backfill"
	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/report"
	"github.com/assolib/assolib-manager/internal/store"
)

// App is the main application
type App struct {
	hs   *httpapi.Server
	db   dependency.Repository
	c    *config.Config
	done chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting assolib manager")

	db, err := store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
			slog.String("err", err.Error()),
		)
		return err
	}
	a.db = db

	reports := report.New(a.c.Report, a.db)
	bf := backfill.New(a.db)

	// start API server
	a.hs = httpapi.New(&a.c.HTTP, reports, bf, a.db)
	if err = a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()),
		)
		return err
	}

	go func() {
		<-a.hs.Done()
		close(a.done)
	}()

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "http server shutdown failed",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
