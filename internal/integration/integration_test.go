package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"trivia-quest/internal/app"
	"trivia-quest/internal/domain"
	"trivia-quest/internal/infra/memory"
	"trivia-quest/internal/infra/opentdb"
	pgstore "trivia-quest/internal/infra/postgres"
	pgmigrations "trivia-quest/internal/infra/postgres/migrations"
	redisstore "trivia-quest/internal/infra/redis"
)

const triviaPayload = `{
	"response_code": 0,
	"results": [
		{
			"category": "Geography",
			"type": "multiple",
			"difficulty": "easy",
			"question": "What is the capital of France?",
			"correct_answer": "Paris",
			"incorrect_answers": ["London", "Berlin", "Rome"]
		},
		{
			"category": "Science",
			"type": "boolean",
			"difficulty": "easy",
			"question": "Water boils at 100C at sea level.",
			"correct_answer": "True",
			"incorrect_answers": ["False"]
		},
		{
			"category": "History",
			"type": "multiple",
			"difficulty": "hard",
			"question": "In which year did the Berlin Wall fall?",
			"correct_answer": "1989",
			"incorrect_answers": ["1987", "1990", "1991"]
		},
		{
			"category": "Science",
			"type": "multiple",
			"difficulty": "medium",
			"question": "What planet is known as the Red Planet?",
			"correct_answer": "Mars",
			"incorrect_answers": ["Venus", "Jupiter", "Mercury"]
		},
		{
			"category": "Sports",
			"type": "boolean",
			"difficulty": "easy",
			"question": "A marathon is longer than 40 kilometers.",
			"correct_answer": "True",
			"incorrect_answers": ["False"]
		}
	]
}`

func newTriviaStub(t *testing.T) *opentdb.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(triviaPayload))
	}))
	t.Cleanup(server.Close)
	return opentdb.NewClient(server.URL, 5*time.Second)
}

func TestQuizAttemptSurvivesRestartWithPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewStore(pool)
	trivia := newTriviaStub(t)

	service := app.NewQuizService(memory.NewAttemptRepository(), store, store, trivia)

	if err := service.RegisterPlayer(ctx, "dev-1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.StartQuiz(ctx, "dev-1", domain.QuizConfig{Amount: 5}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.RecordAnswer(ctx, "dev-1", 0, "Paris"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.RecordAnswer(ctx, "dev-1", 1, "True"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.GoNext(ctx, "dev-1"); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := service.GoNext(ctx, "dev-1"); err != nil {
		t.Fatalf("next: %v", err)
	}

	// A process restart loses live attempts but not the durable slots.
	restarted := app.NewQuizService(memory.NewAttemptRepository(), store, store, trivia)

	name, ok, err := restarted.PlayerName(ctx, "dev-1")
	if err != nil || !ok || name != "Alice" {
		t.Fatalf("expected Alice after restart, got %q ok=%v err=%v", name, ok, err)
	}

	view, err := restarted.StartQuiz(ctx, "dev-1", domain.QuizConfig{Amount: 5})
	if err != nil {
		t.Fatalf("restart start: %v", err)
	}
	if view.CurrentIndex != 2 {
		t.Fatalf("expected restored index 2, got %d", view.CurrentIndex)
	}
	if view.Questions[0].UserAnswer != "Paris" || view.Questions[1].UserAnswer != "True" {
		t.Fatalf("expected restored answers, got %+v", view.Questions[:2])
	}

	finished, err := restarted.ForceSubmit(ctx, "dev-1")
	if err != nil {
		t.Fatalf("force submit: %v", err)
	}
	stats := app.CalculateStats(finished)
	if stats.Correct != 2 || stats.Incorrect != 0 || stats.Score != 100 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, ok, _ := store.GetProgress(ctx, "dev-1"); ok {
		t.Fatalf("expected progress cleared after submit")
	}
}

func TestQuizAttemptRoundTripWithRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := redisstore.NewStore(client, time.Hour)
	trivia := newTriviaStub(t)
	service := app.NewQuizService(memory.NewAttemptRepository(), store, store, trivia)

	if err := service.RegisterPlayer(ctx, "dev-2", "Bob"); err != nil {
		t.Fatalf("register: %v", err)
	}
	view, err := service.StartQuiz(ctx, "dev-2", domain.QuizConfig{Amount: 5})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, q := range view.Questions {
		if _, err := service.RecordAnswer(ctx, "dev-2", q.ID, q.CorrectAnswer); err != nil {
			t.Fatalf("answer %d: %v", q.ID, err)
		}
	}

	unanswered, finished, err := service.AttemptSubmit(ctx, "dev-2")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if unanswered != 0 || len(finished) != 5 {
		t.Fatalf("expected complete submit, got unanswered=%d len=%d", unanswered, len(finished))
	}
	stats := app.CalculateStats(finished)
	if stats.Score != 100 {
		t.Fatalf("expected perfect score, got %+v", stats)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
