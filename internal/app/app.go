// Package app wires configuration to adapters and exposes the operations the
// command layer calls.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"newsagent/internal/config"
	"newsagent/internal/domain"
	"newsagent/internal/infrastructure/gemini"
	"newsagent/internal/infrastructure/mail"
	"newsagent/internal/infrastructure/reddit"
	"newsagent/internal/infrastructure/storage"
	"newsagent/internal/infrastructure/telegram"
	"newsagent/internal/logging"
	"newsagent/internal/ports"
	"newsagent/internal/schedule"
	"newsagent/internal/usecase"
)

// Application wires configs to the run pipeline and the background scheduler.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	runner    mailboxRunner
	scheduler *schedule.Scheduler
	history   ports.RunRepository
	db        *sql.DB
}

type runExecutor interface {
	Execute(ctx context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error)
}

// mailboxRunner fills mailbox credentials from application config before a
// run. Both interactive and scheduled runs go through it: the persisted
// schedule record carries the newsletter flags but never the credentials.
type mailboxRunner struct {
	runner   runExecutor
	address  string
	password string
}

func (m mailboxRunner) Execute(ctx context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error) {
	if cfg.EmailAddress == "" {
		cfg.EmailAddress = m.address
	}
	if cfg.EmailPassword == "" {
		cfg.EmailPassword = m.password
	}
	return m.runner.Execute(ctx, cfg)
}

// New builds a runnable application instance from resolved configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	forum := reddit.NewClient(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret, cfg.Reddit.UserAgent)
	notifier := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	analysisClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Endpoint)
	narrator := gemini.NewTTS(analysisClient)

	var newsletter ports.NewsletterClient
	if cfg.Email.Address != "" && cfg.Email.Password != "" {
		newsletter = mail.NewFetcher(
			cfg.Email.IMAPServer,
			cfg.Email.IMAPPort,
			cfg.Email.Address,
			cfg.Email.Password,
			baseLogger.With("component", "mail"),
		)
	}

	var db *sql.DB
	var history ports.RunRepository
	if cfg.Database.DSN != "" {
		conn, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repo := storage.NewPostgresRepository(conn)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			baseLogger.Warn("run history schema check failed", "error", err)
		}
		db = conn
		history = repo
	}

	pipeline := usecase.NewRunner(usecase.RunnerDeps{
		Forum:      forum,
		Newsletter: newsletter,
		Analyzer:   analysisClient,
		Narrator:   narrator,
		Notifier:   notifier,
		History:    history,
		Credentials: usecase.Credentials{
			RedditClientID:     cfg.Reddit.ClientID,
			RedditClientSecret: cfg.Reddit.ClientSecret,
			TelegramBotToken:   cfg.Telegram.BotToken,
			TelegramChatID:     cfg.Telegram.ChatID,
		},
		OutputsDir: cfg.Outputs.Dir,
		Logger:     baseLogger.With("component", "runner"),
	})

	runner := mailboxRunner{
		runner:   pipeline,
		address:  cfg.Email.Address,
		password: cfg.Email.Password,
	}

	store := schedule.NewStore(cfg.Outputs.ScheduleFile)
	scheduler := schedule.New(store, runner, notifier, baseLogger.With("component", "scheduler"))
	scheduler.Load()

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		runner:    runner,
		scheduler: scheduler,
		history:   history,
		db:        db,
	}, nil
}

// Config exposes the resolved configuration to the command layer.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Logger exposes the base logger to the command layer.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Scheduler exposes the schedule lifecycle to the command layer.
func (a *Application) Scheduler() *schedule.Scheduler {
	return a.scheduler
}

// RunOnce executes a single pipeline run with the given configuration. The
// mailbox credentials are filled from application config when the caller left
// them empty.
func (a *Application) RunOnce(ctx context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error) {
	return a.runner.Execute(ctx, cfg)
}

// Serve runs the background scheduler until an interrupt arrives. When the
// persisted record is disabled the process still stays up so the schedule can
// be enabled from another invocation and picked up on restart.
func (a *Application) Serve(ctx context.Context) error {
	state := a.scheduler.Load()
	if state.Enabled {
		a.scheduler.Start()
	} else {
		a.logger.Info("schedule disabled, waiting for interrupt")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-ctx.Done():
	case s := <-sig:
		a.logger.Info("shutdown signal received", "signal", s.String())
	}

	a.scheduler.Stop()
	return nil
}

// History returns the most recent run records, newest first. Without a
// configured database it returns an explanatory error.
func (a *Application) History(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if a.history == nil {
		return nil, fmt.Errorf("run history requires a configured database (set DATABASE_DSN)")
	}
	return a.history.RecentRuns(ctx, limit)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
