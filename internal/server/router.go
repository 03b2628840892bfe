package server

import (
	"context"
	"net/http"

	"bakecost/internal/handlers"
	applog "bakecost/internal/log"
	"bakecost/internal/metrics"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.Handle("/metrics", metrics.Handler())
	applog.Debug(context.Background(), "route registered", "path", "/metrics")
	mux.Handle("/login", metrics.InstrumentHandler("/login", http.HandlerFunc(handlers.Login)))
	applog.Debug(context.Background(), "route registered", "path", "/login")
	mux.Handle("/signup", metrics.InstrumentHandler("/signup", http.HandlerFunc(handlers.Signup)))
	applog.Debug(context.Background(), "route registered", "path", "/signup")
	mux.HandleFunc("/logout", handlers.Logout)
	applog.Debug(context.Background(), "route registered", "path", "/logout")

	protected := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"/app/api/dashboard", handlers.Dashboard},
		{"/app/api/ingredients", handlers.IngredientResource},
		{"/app/api/ingredients/", handlers.IngredientResource},
		{"/app/api/recipes", handlers.RecipeResource},
		{"/app/api/recipes/", handlers.RecipeResource},
	}
	for _, route := range protected {
		mux.Handle(route.pattern, handlers.RequireAuthentication(metrics.InstrumentHandler(route.pattern, route.handler)))
		applog.Debug(context.Background(), "route registered", "path", route.pattern, "protected", true)
	}
	return mux
}
