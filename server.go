package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// ServerDeps is everything the HTTP surface needs wired up front
type ServerDeps struct {
	Repo   RepositoryManager
	Auther *Auther
	Guard  *Guard
	Logger Logger
	Debug  bool
}

// NewServer builds the fiber backed server and mounts the auth and
// catalog routes on it. The caller owns the listen call:
//
//	srv := catalog.NewServer(deps)
//	srv.Serve(":8080")
func NewServer(deps ServerDeps) router.Server[*fiber.App] {
	if deps.Logger == nil {
		deps.Logger = defLogger{}
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	app := srv.Router()

	RegisterAuthRoutes(app,
		WithAuthControllerAuther(deps.Auther),
		WithAuthControllerGuard(deps.Guard),
		WithAuthControllerLogger(deps.Logger),
	)

	RegisterProductRoutes(app, &ProductsController{
		Logger:       deps.Logger,
		Repo:         deps.Repo,
		Guard:        deps.Guard,
		ErrorHandler: MakeJSONErrorHandler(deps.Logger, deps.Debug),
	})

	return srv
}
