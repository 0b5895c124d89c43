// Command server runs the experiment engine API: experiment management,
// deterministic variant assignment, event ingestion and results reporting.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/experiment-engine/internal/api"
	"github.com/ignite/experiment-engine/internal/auth"
	"github.com/ignite/experiment-engine/internal/cache"
	"github.com/ignite/experiment-engine/internal/config"
	"github.com/ignite/experiment-engine/internal/export"
	"github.com/ignite/experiment-engine/internal/repository/postgres"
	"github.com/ignite/experiment-engine/internal/service/assignment"
	"github.com/ignite/experiment-engine/internal/service/event"
	"github.com/ignite/experiment-engine/internal/service/experiment"
	"github.com/ignite/experiment-engine/internal/service/results"
)

// checkPortAvailable verifies the target port is not already in use so a
// half-started duplicate fails fast instead of at ListenAndServe.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database URL is required (config database.url or DATABASE_URL)")
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("[Server] connected to PostgreSQL")

	experimentRepo := postgres.NewExperimentRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	resultsRepo := postgres.NewResultsRepo(db)

	var assignmentStore assignment.Store = postgres.NewAssignmentRepo(db)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// The cache is an optimization; run without it rather than die.
			log.Printf("[Server] Redis unreachable at %s, assignment cache disabled: %v", cfg.Redis.Addr, err)
		} else {
			ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
			assignmentStore = cache.NewAssignmentStore(assignmentStore, redisClient, ttl)
			log.Printf("[Server] assignment cache enabled (ttl=%s)", ttl)
		}
	}

	experiments := experiment.NewService(experimentRepo)
	assignments := assignment.NewService(assignmentStore, experimentRepo)
	events := event.NewService(eventRepo, assignmentStore)
	aggregator := results.NewAggregator(resultsRepo, experimentRepo)

	handlers := api.NewHandlers(experiments, assignments, events, aggregator)
	handlers.SetRevenueProperty(cfg.Results.RevenueProperty)

	if cfg.Export.Enabled {
		exporter, err := export.NewS3Exporter(context.Background(), export.S3Config{
			Bucket: cfg.Export.Bucket,
			Prefix: cfg.Export.Prefix,
			Region: cfg.Export.Region,
		})
		if err != nil {
			log.Printf("[Server] report export disabled: %v", err)
		} else {
			handlers.SetExporter(exporter)
		}
	}

	authenticator := auth.NewTokenAuthenticator(cfg.Auth.Tokens)
	if !authenticator.Enabled() {
		log.Println("[Server] WARNING: no API tokens configured, authentication disabled")
	}

	healthChecker := api.NewHealthChecker(db, redisClient)
	router := api.SetupRoutes(handlers, healthChecker, authenticator)
	server := api.NewServer(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Printf("[Server] listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[Server] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("[Server] stopped")
}
