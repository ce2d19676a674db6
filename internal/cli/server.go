package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-quest/internal/app"
	"trivia-quest/internal/config"
	"trivia-quest/internal/infra/memory"
	"trivia-quest/internal/infra/opentdb"
	pgstore "trivia-quest/internal/infra/postgres"
	redisstore "trivia-quest/internal/infra/redis"
	transport "trivia-quest/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia quest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	triviaTimeout := config.Duration(cfg.Trivia.Timeout, 10*time.Second)
	trivia := opentdb.NewClient(cfg.Trivia.BaseURL, triviaTimeout)

	// Durable backends are optional: postgres when configured, else redis,
	// else everything stays in-process.
	var players app.PlayerStore
	var progress app.ProgressStore
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		store := pgstore.NewStore(pool)
		players, progress = store, store
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redisstore.NewStore(client, config.Duration(cfg.Redis.ProgressTTL, 0))
		players, progress = store, store
	default:
		store := memory.NewStore()
		players, progress = store, store
	}

	attempts := memory.NewAttemptRepository()
	service := app.NewQuizService(attempts, players, progress, trivia)
	wsHandler := transport.NewWSHandler(service)

	categoryTTL := config.Duration(cfg.Categories.TTL, time.Hour)
	categories := transport.NewCategoryHandler(memory.NewCategoryCache(trivia, categoryTTL))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/categories", categories)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia quest service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
