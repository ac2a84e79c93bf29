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
	"quizhost-service/internal/app"
	"quizhost-service/internal/config"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	pgloader "quizhost-service/internal/infra/postgres"
	redisinfra "quizhost-service/internal/infra/redis"
	transport "quizhost-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.ContentLoader = memory.NewStaticContentStore(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var content app.ContentStore
	if redisClient != nil {
		content = redisinfra.NewSnapshotCache(redisClient, loader, quizTTL)
	} else {
		content = memory.NewSnapshotCache(loader, quizTTL)
	}

	var index app.SessionIndex = app.NopIndex{}
	if redisClient != nil {
		index = redisinfra.NewSessionIndex(redisClient)
	}

	identity := memory.NewStaticIdentityProvider(cfg.Auth.Tokens, cfg.Auth.Owners)
	registry := app.NewRegistryWithOptions(identity, content, index, app.Options{
		Countdown: config.Duration(cfg.Session.Countdown, 3*time.Second),
	})
	handler := transport.NewHandler(registry)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
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

// sampleQuizzes provides minimal quiz content for running without Postgres.
func sampleQuizzes() map[string]domain.QuizSnapshot {
	return map[string]domain.QuizSnapshot{
		"quiz-1": {
			QuizID:      "quiz-1",
			Name:        "Warmup",
			Description: "A one-question demo quiz",
			Questions: []domain.Question{
				{
					QuestionID: 1,
					Question:   "What is 2 + 2?",
					Duration:   30,
					Points:     5,
					Answers: []domain.Answer{
						{AnswerID: 1, Answer: "3", Correct: false, Colour: "red"},
						{AnswerID: 2, Answer: "4", Correct: true, Colour: "blue"},
						{AnswerID: 3, Answer: "5", Correct: false, Colour: "green"},
					},
				},
			},
		},
	}
}
