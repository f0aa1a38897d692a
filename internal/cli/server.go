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

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/config"
	"trivia-challenge-service/internal/domain"
	"trivia-challenge-service/internal/infra/memory"
	pgloader "trivia-challenge-service/internal/infra/postgres"
	redisinfra "trivia-challenge-service/internal/infra/redis"
	transport "trivia-challenge-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia challenge server",
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
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository = memory.NewQuestionBank(loader, questionTTL)
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, questions)
	}

	var progress app.ProgressStore = memory.NewProgressStore()
	if redisClient != nil {
		progress = redisinfra.NewProgressStore(redisClient)
	}

	sink := app.NewChannelSink(4)
	go func() {
		for a := range sink.Pending() {
			// Delivery is owned by whatever chat/notification layer fronts
			// this service; the server just makes payloads visible.
			log.Printf("weekly announcement ready (week of %s): %s", a.WeekStart, a.Message)
		}
	}()

	trivia := app.NewTriviaService(questions, progress)
	challenges := app.NewChallengeService(questions, progress, sink)
	challenges.StartScheduler(ctx)
	defer challenges.Shutdown()

	wsHandler := transport.NewWSHandler(trivia, challenges)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
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

// sampleQuestions seeds the in-memory bank when no database is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            1,
			Text:          "In which year did humans first land on the Moon?",
			Type:          domain.MultipleChoice,
			Difficulty:    domain.DifficultyEasy,
			Category:      "space",
			Options:       []string{"1965", "1969", "1972", "1975"},
			CorrectAnswer: "1969",
			Explanation:   "Apollo 11 landed on July 20, 1969.",
		},
		{
			ID:            2,
			Text:          "Mars is known as the Red Planet.",
			Type:          domain.TrueFalse,
			Difficulty:    domain.DifficultyEasy,
			Category:      "space",
			CorrectAnswer: "true",
		},
		{
			ID:            3,
			Text:          "Which planet is the largest in our solar system?",
			Type:          domain.MultipleChoice,
			Difficulty:    domain.DifficultyMedium,
			Category:      "space",
			Options:       []string{"Saturn", "Neptune", "Jupiter", "Uranus"},
			CorrectAnswer: "Jupiter",
			Explanation:   "Jupiter's mass is more than twice that of all other planets combined.",
		},
		{
			ID:               4,
			Text:             "What is the name of the galaxy that contains our solar system?",
			Type:             domain.FillBlank,
			Difficulty:       domain.DifficultyMedium,
			Category:         "space",
			CorrectAnswer:    "Milky Way",
			AnswerVariations: []string{"the milky way", "milkyway"},
		},
		{
			ID:            5,
			Text:          "Approximately how many minutes does sunlight take to reach Earth?",
			Type:          domain.MultipleChoice,
			Difficulty:    domain.DifficultyHard,
			Category:      "space",
			Options:       []string{"2", "8", "20", "60"},
			CorrectAnswer: "8",
			Explanation:   "Light covers the roughly 150 million km in about 8 minutes 20 seconds.",
		},
		{
			ID:            6,
			Text:          "A teaspoon of neutron star material would weigh about a billion tons.",
			Type:          domain.TrueFalse,
			Difficulty:    domain.DifficultyHard,
			Category:      "space",
			CorrectAnswer: "true",
			Explanation:   "Neutron star matter is the densest known form of stable matter.",
		},
	}
}
