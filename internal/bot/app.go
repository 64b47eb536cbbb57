// Package bot assembles the dispatcher: configuration, task service client,
// profile cache, dialogue engine and all command/callback routes.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/personal-assistant-for-students/dispatcher-service/core/config"
	"github.com/personal-assistant-for-students/dispatcher-service/core/database"
	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"
	tg "github.com/personal-assistant-for-students/dispatcher-service/core/telegram"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/commands"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/keyboard"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/router"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/dialog"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/profile"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/taskapi"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// TaskService is the slice of the task API the handlers depend on.
// *taskapi.Client satisfies it; tests substitute fakes.
type TaskService interface {
	ListTasks(ctx context.Context, ownerID int64) ([]taskapi.Task, error)
	GetTask(ctx context.Context, taskID, ownerID int64) (taskapi.Task, error)
	CreateTask(ctx context.Context, ownerID int64, title, content, deadline string) (taskapi.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, ownerID int64, status string) error
}

// App wires all dispatcher components together.
type App struct {
	cfg      *coreconfig.Config
	registry *tg.Registry
	tasks    TaskService
	engine   *dialog.Engine
	profiles *profile.Store
	db       *sqlx.DB
	menu     *tele.ReplyMarkup
}

// New builds the application from configuration.
func New(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}

	client, err := taskapi.NewClient(taskapi.Options{
		BaseURL: cfg.TaskService.BaseURL,
		Timeout: time.Duration(cfg.TaskService.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("bot: task service client: %w", err)
	}

	var (
		db       *sqlx.DB
		profiles *profile.Store
	)
	if cfg.Database.Enabled() {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, fmt.Errorf("bot: migrations: %w", err)
		}
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bot: database: %w", err)
		}
		profiles = profile.NewStore(db)
	} else {
		logger.Info(logger.Background(), "profile", "cache.disabled")
	}

	app := &App{
		cfg:      cfg,
		registry: tg.NewRegistry(),
		tasks:    client,
		profiles: profiles,
		db:       db,
		menu:     mainMenu(),
	}
	app.engine = dialog.NewEngine(client, app.menu)

	if err := app.registerRoutes(); err != nil {
		return nil, err
	}
	return app, nil
}

func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{"/joka", "/new", "/tasks"})
}

func commandDef(description string, handler tele.HandlerFunc) commands.Command {
	return commands.Command{Handler: handler, Description: description}
}

func (a *App) registerRoutes() error {
	a.registry.RegisterCommand("/start", commandDef("Начать работу с ассистентом", a.handleStart))
	a.registry.RegisterCommand("/joka", commandDef("Случайный анекдот", a.handleJoka))
	a.registry.RegisterCommand("/new", commandDef("Создать новую задачу", a.handleNew))
	a.registry.RegisterCommand("/tasks", commandDef("Список ваших задач", a.handleTasks))
	a.registry.RegisterCommand("/update", commandDef("Обновить статус задачи", a.handleUpdate))

	prefixes := map[string]tele.HandlerFunc{
		callback.TaskPrefix:     a.handleTaskCallback,
		callback.StatusPrefix:   a.handleStatusCallback,
		callback.CalendarPrefix: a.handleCalendarCallback,
	}
	for prefix, handler := range prefixes {
		if err := a.registry.RegisterCallbackPrefix(prefix, handler); err != nil {
			return fmt.Errorf("bot: callback wiring: %w", err)
		}
	}

	a.registry.SetTextFallback(a.handleUnknownText)
	return nil
}

// Registry exposes the command/callback registry, mainly for tests.
func (a *App) Registry() *tg.Registry { return a.registry }

// TelegramRunOptions builds the runtime wiring consumed by core/cmd.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(dialogAdapter{app: a}, a.registry, router.TextOptions{
		UnknownText: a.handleUnknownText,
	})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			logger.Info(ctx, "app", "routes.ready",
				slog.Int("count", len(routes)),
			)
			return nil
		},
	}, nil
}

// Close releases the database pool if one was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
