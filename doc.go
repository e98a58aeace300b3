// Package keycloakauth attaches Keycloak bearer-token authentication to an
// app.Router.
//
// Settings are read from the settings.keycloak_settings section of the
// application config (see package settings). The simplest integration is the
// initializer, which protects every route:
//
//	router, err := app.Boot(ctx, appCtx, routes, keycloakauth.NewInitializer())
//
// To protect only some routes, build the layer yourself:
//
//	kc, err := keycloakauth.FromContext(appCtx)
//	if err != nil {
//		return err
//	}
//	r.Handle("GET /me", kc.Layer.Middleware(meHandler))
package keycloakauth
