package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trainops/trainerd/config"
	"github.com/trainops/trainerd/handlers"
	"github.com/trainops/trainerd/k8sjob"
	"github.com/trainops/trainerd/local"
	"github.com/trainops/trainerd/middleware"
	"github.com/trainops/trainerd/monitor"
	"github.com/trainops/trainerd/registry"
	"github.com/trainops/trainerd/store"
	"github.com/trainops/trainerd/training"
)

func main() {
	configPath := flag.String("config", getEnvOrDefault("TRAINERD_CONFIG", "trainerd.yaml"), "Path to config file")
	port := flag.String("port", "", "Server port (overrides config)")
	flag.Parse()

	log.Println("Starting trainerd")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	st, err := store.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Backend factories available to configuration.
	registry.Register(local.Type, local.New)
	registry.Register(k8sjob.Type, k8sjob.New)

	trainers := map[string]training.Trainer{}
	for name, tc := range cfg.Trainers {
		trainer, err := registry.New(name, tc.Type, tc.Config)
		if err != nil {
			log.Fatalf("Failed to construct trainer %q: %v", name, err)
		}
		trainers[name] = trainer
		log.Printf("Trainer %q ready (type %s)", name, tc.Type)
	}

	mon := monitor.New(st, trainers, time.Second)
	mon.Start()
	defer mon.Stop()

	handler := handlers.NewHandler(trainers, st)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	api := router.Group("/api/v1")
	if cfg.Server.AuthHeader != "" {
		api.Use(middleware.UserIdentity(cfg.Server.AuthHeader))
	}
	{
		trainings := api.Group("/trainings")
		{
			trainings.POST("", handler.CreateTraining)
			trainings.GET("", handler.ListTrainings)
			trainings.GET("/:id", handler.GetTraining)
			trainings.GET("/:id/status", handler.GetTrainingStatus)
			trainings.GET("/:id/logs", handler.GetTrainingLogs)
			trainings.POST("/:id/cancel", handler.CancelTraining)
			trainings.DELETE("/:id", handler.DeleteTraining)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
