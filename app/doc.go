// Package app is a small host framework for net/http services.
//
// An application is described by a YAML Config, turned into a Context at
// startup, and served through a Router. Integrations plug into startup as
// named Initializers: Boot registers the application's routes and then runs
// each initializer's AfterRoutes hook in order, letting it wrap the router
// with middleware layers. The first failing initializer aborts boot.
//
//	cfg, err := app.LoadConfig("config/config.yaml")
//	appCtx, err := app.NewContext(cfg)
//	router, err := app.Boot(ctx, appCtx, routes, keycloakauth.NewInitializer())
//	err = app.Serve(ctx, appCtx, router)
package app
