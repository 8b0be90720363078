package status

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
)

// App is a small operational HTTP surface next to the bot:
// liveness for the process manager and a state snapshot for a human.
type App struct {
	log     *slog.Logger
	address string
	app     *fiber.App
}

type SessionSource interface {
	Session() models.AuthSession
}

type DirectorySource interface {
	All() []models.DirectoryEntry
}

func New(
	log *slog.Logger,
	address string,
	session SessionSource,
	directory DirectorySource,
) *App {
	started := time.Now()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/status", func(c *fiber.Ctx) error {
		s := session.Session()
		return c.JSON(fiber.Map{
			"uptime":  time.Since(started).String(),
			"users":   len(directory.All()),
			"session": s.Status.String(),
		})
	})

	return &App{
		log:     log,
		address: address,
		app:     app,
	}
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	return a.app.Listen(a.address)
}

func (a *App) Stop() {
	a.app.Shutdown()
}
