// @title           HV-Com API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixiang810/HV-Com/internal/api"
	"github.com/lixiang810/HV-Com/internal/config"
	"github.com/lixiang810/HV-Com/internal/database"
	"github.com/lixiang810/HV-Com/internal/websocket"

	_ "github.com/lixiang810/HV-Com/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Unable to connect to the database: %v", err)
	}
	defer dbpool.Close()

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool, wsHub)
	if err := store.Init(context.Background()); err != nil {
		log.Fatalf("Unable to initialize the storage provider: %v", err)
	}
	log.Println("Storage provider initialized")

	server := api.NewServer(cfg, store, wsHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	// Comment widgets are embedded on third-party pages.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/register", server.RegisterHandler)
	r.Post("/api/v1/auth/login", server.LoginHandler)
	r.Post("/api/v1/auth/refresh", server.RefreshHandler)
	r.Get("/api/v1/users", server.LookupUserHandler)
	r.Get("/api/v1/users/{userId}", server.GetUserHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Post("/auth/revoke", server.RevokeAllHandler)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Patch("/me", server.UpdateCurrentUserHandler)
		r.Delete("/me", server.DeleteCurrentUserHandler)
		r.Get("/sessions", server.ListSessionsHandler)
		r.Delete("/sessions/{sessionId}", server.DeleteSessionHandler)
	})

	log.Println("Starting server on :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatalf("Unable to start the server: %v", err)
	}
}
