package main

import (
	"context"
	"net/http"
	"os"

	"github.com/autotracks/autotracks-api/internal/auth"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/events"
	"github.com/autotracks/autotracks-api/internal/fanout"
	"github.com/autotracks/autotracks-api/internal/handlers"
	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}
	log.SetFormatter(&log.JSONFormatter{})

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	collections := db.NewCollections(client.Database(db.DatabaseName()))
	log.Info("Connected to MongoDB")

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	publisher, err := events.NewPublisher("autotracks-api")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MQTT broker")
	}

	sync := fanout.New(collections.Properties, collections.Configs, collections.Vehicles)

	authHandler := handlers.NewAuthHandler(authService, collections.Accounts, collections.Users)
	userHandler := handlers.NewUserHandler(authService, collections.Users, collections.Configs, collections.Properties)
	dealershipHandler := handlers.NewDealershipHandler(collections.Dealerships, collections.Users, collections.Configs)
	propertyHandler := handlers.NewPropertyHandler(collections.Properties, sync, publisher)
	configHandler := handlers.NewPropertyConfigHandler(collections.Configs, collections.Properties)
	vehicleHandler := handlers.NewVehicleHandler(collections.Vehicles, collections.Properties)
	roleHandler := handlers.NewRoleHandler(collections.Roles)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimit := middleware.NewRateLimitMiddleware()

	router := chi.NewRouter()
	router.Use(middleware.Metrics)
	router.Use(rateLimit.RateLimit(300, 60))
	router.Use(authMiddleware.Authenticate)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Post("/accounts/register", authHandler.Register)
	router.Post("/auth/signin", authHandler.SignIn)
	router.Post("/auth/signout", authHandler.SignOut)
	router.Get("/auth/verify", authHandler.Verify)

	router.Route("/accounts/{accountId}", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(authMiddleware.RequireAccountAdmin).Post("/", userHandler.Create)
			r.Get("/", userHandler.List)
			r.Get("/{userId}", userHandler.Get)
			r.With(authMiddleware.RequireAccountAdmin).Put("/{userId}", userHandler.Update)
		})
		r.Route("/dealerships", func(r chi.Router) {
			r.With(authMiddleware.RequireAccountAdmin).Post("/", dealershipHandler.Create)
			r.Get("/", dealershipHandler.List)
			r.Get("/{dealershipId}", dealershipHandler.Get)
		})
	})

	router.Route("/dealerships/{dealershipId}", func(r chi.Router) {
		r.Put("/activate", userHandler.ActivateDealership)

		r.Route("/properties", func(r chi.Router) {
			r.Post("/", propertyHandler.Create)
			r.Get("/", propertyHandler.List)
			r.Get("/{propertyId}", propertyHandler.Get)
			r.Put("/{propertyId}", propertyHandler.Update)
			r.Delete("/{propertyId}", propertyHandler.Delete)
		})

		r.Route("/property-configs", func(r chi.Router) {
			r.Get("/", configHandler.Get)
			r.Put("/", configHandler.UpdateOrder)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Post("/", vehicleHandler.Create)
			r.Get("/", vehicleHandler.List)
			r.Get("/{vehicleId}", vehicleHandler.Get)
			r.Put("/{vehicleId}", vehicleHandler.Update)
			r.Delete("/{vehicleId}", vehicleHandler.Delete)
		})

		r.Post("/roles", roleHandler.Create)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}
