package app

import (
	"context"
	"log/slog"
	"os"

	statusApp "github.com/MrFrederic/iflyvideosbot/internal/app/status"
	tgClient "github.com/MrFrederic/iflyvideosbot/internal/client/telegram"
	"github.com/MrFrederic/iflyvideosbot/internal/config"
	botCtr "github.com/MrFrederic/iflyvideosbot/internal/controller/bot"
	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/lib/scheduler"
	archiveSrv "github.com/MrFrederic/iflyvideosbot/internal/service/archive"
	authSrv "github.com/MrFrederic/iflyvideosbot/internal/service/auth"
	"github.com/MrFrederic/iflyvideosbot/internal/storage/document"
	"github.com/MrFrederic/iflyvideosbot/internal/storage/registry"
)

type App struct {
	log        *slog.Logger
	client     *tgClient.Client
	controller *botCtr.Controller
	Status     *statusApp.App
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	token string,
) *App {
	client, err := tgClient.New(log, token, cfg.Telegram.Timeout)
	if err != nil {
		log.Error("failed to init telegram client", sl.Err(err))
		os.Exit(1)
	}

	directory, err := registry.New(log, cfg.RegistryPath)
	if err != nil {
		log.Error("failed to init directory registry", sl.Err(err))
		os.Exit(1)
	}

	store, err := document.New(log, client, cfg.BackupDir)
	if err != nil {
		log.Error("failed to init archive store", sl.Err(err))
		os.Exit(1)
	}

	archive := archiveSrv.New(log, store)

	menuMsg := botCtr.NewMenuMessage(log, client, cfg.PrivilegedChatID)

	auth := authSrv.New(
		log,
		directory,
		botCtr.NewNotifier(log, client, menuMsg),
		scheduler.System{},
		cfg.Session.Length,
		cfg.Session.Grace,
	)

	controller := botCtr.New(
		log,
		client,
		archive,
		auth,
		directory,
		menuMsg,
		cfg.PrivilegedChatID,
	)

	return &App{
		log:        log,
		client:     client,
		controller: controller,
		Status:     statusApp.New(log, cfg.Status.Address, auth, directory),
	}
}

// Run consumes the update stream until Stop. Updates are handled
// sequentially: all operations against one owner's archive run one
// after another, there is no second writer to race with.
func (a *App) Run() {
	ctx := context.Background()

	for upd := range a.client.Updates() {
		a.controller.HandleUpdate(ctx, upd)
	}
}

func (a *App) Stop() {
	a.client.Stop()
}
