package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/filename"
	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/service"
	"github.com/MrFrederic/iflyvideosbot/internal/service/menu"
)

const (
	startText = "Welcome to the Bodyflight Video Bot! Use buttons to navigate."

	helpText = "Available commands:\n" +
		"/start - Shows menu\n" +
		"/help - Shows this message\n" +
		"/clear_data - Careful! Deletes all saved videos!\n\n" +
		"To upload videos - just drop them here. The bot will automatically " +
		"find their correct flight. Alternatively, you can send them from the " +
		"tunnel account after completing authentication."

	privilegedHelpText = "You can send your videos to the bot after completing authentication"
)

// Controller routes incoming updates: commands, uploads and button
// presses from user chats, plus the delegated-upload flow of the
// privileged chat. It never mutates tree nodes directly, all archive
// changes go through the archive service.
type Controller struct {
	log            *slog.Logger
	tg             Transport
	archive        ArchiveService
	auth           AuthService
	directory      Directory
	menuMsg        *MenuMessage
	privilegedChat int64
}

type Transport interface {
	MenuTransport
	SendVideo(ctx context.Context, chat int64, assetRef string, kb models.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type ArchiveService interface {
	AddVideo(ctx context.Context, owner int64, upload models.Upload) (models.Video, error)
	Tree(ctx context.Context, owner int64) (*models.Archive, error)
	FindVideo(ctx context.Context, owner int64, date int64, slot string, flight int64, videoID int64) (models.Video, error)
	Stats(ctx context.Context, owner int64) (models.Stats, error)
	Reset(ctx context.Context, owner int64) error
	ReplaceFromDocument(ctx context.Context, owner int64, data []byte) error
}

type AuthService interface {
	SubmitUsername(ctx context.Context, text string) (models.AuthSession, error)
	Confirm(ctx context.Context, accept bool) (models.AuthSession, error)
	Authorize(ctx context.Context) (models.DirectoryEntry, error)
	Logout(ctx context.Context)
	Cancel(ctx context.Context)
}

type Directory interface {
	Upsert(entry models.DirectoryEntry) error
}

func New(
	log *slog.Logger,
	tg Transport,
	archive ArchiveService,
	auth AuthService,
	directory Directory,
	menuMsg *MenuMessage,
	privilegedChat int64,
) *Controller {
	return &Controller{
		log:            log,
		tg:             tg,
		archive:        archive,
		auth:           auth,
		directory:      directory,
		menuMsg:        menuMsg,
		privilegedChat: privilegedChat,
	}
}

// HandleUpdate dispatches one update. Failures are reported and
// logged, never escalated: a broken update must not take the bot down.
func (c *Controller) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		c.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		c.handleMessage(ctx, upd.Message)
	}
}

func (c *Controller) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID == c.privilegedChat {
		c.handlePrivilegedMessage(ctx, msg)
		return
	}

	c.registerUser(msg)

	switch {
	case msg.IsCommand():
		c.handleCommand(ctx, msg)
	case msg.Video != nil:
		c.addVideo(ctx, msg.Chat.ID, msg)
	case msg.Document != nil && strings.HasSuffix(msg.Document.FileName, ".json"):
		c.replaceArchive(ctx, msg)
	}
}

func (c *Controller) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	const op = "Controller.handleCommand"

	log := c.log.With(
		slog.String("op", op),
		slog.Int64("chat", msg.Chat.ID),
		slog.String("command", msg.Command()),
	)

	c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)

	switch msg.Command() {
	case "start":
		if _, err := c.tg.SendMessage(ctx, msg.Chat.ID, startText, menu.StartKeyboard()); err != nil {
			log.Error("failed to send start menu", sl.Err(err))
		}
	case "help":
		c.sendWithClose(ctx, msg.Chat.ID, helpText)
	case "clear_data":
		if err := c.archive.Reset(ctx, msg.Chat.ID); err != nil {
			log.Error("failed to clear archive", sl.Err(err))
			c.sendWithClose(ctx, msg.Chat.ID, "Failed to clear the archive, please try again")
			return
		}
		c.sendWithClose(ctx, msg.Chat.ID, "All stored videos have been cleared.")
	case "show_data":
		arch, err := c.archive.Tree(ctx, msg.Chat.ID)
		if err != nil {
			log.Error("failed to load archive", sl.Err(err))
			return
		}
		log.Info("archive contents", slog.Int("days", len(arch.Days)))
	case "create_storage":
		if _, err := c.archive.Tree(ctx, msg.Chat.ID); err != nil {
			log.Error("failed to create storage", sl.Err(err))
		}
	}
}

// addVideo places an uploaded clip into the owner's archive and
// removes the original message from the chat.
func (c *Controller) addVideo(ctx context.Context, owner int64, msg *tgbotapi.Message) {
	const op = "Controller.addVideo"

	log := c.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
		slog.String("filename", msg.Video.FileName),
	)

	upload := models.Upload{
		FileName: msg.Video.FileName,
		AssetRef: msg.Video.FileID,
		Duration: int64(msg.Video.Duration),
	}

	_, err := c.archive.AddVideo(ctx, owner, upload)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDuplicateAsset):
		log.Info("duplicate video ignored")
	case errors.Is(err, filename.ErrMalformedFilename):
		c.sendWithClose(ctx, msg.Chat.ID, "Could not recognize the video filename: "+msg.Video.FileName)
	default:
		log.Error("failed to add video", sl.Err(err))
		c.sendWithClose(ctx, msg.Chat.ID, "Failed to save the video, please try again")
	}

	c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)
}

// replaceArchive handles a manually uploaded data.json.
func (c *Controller) replaceArchive(ctx context.Context, msg *tgbotapi.Message) {
	const op = "Controller.replaceArchive"

	log := c.log.With(
		slog.String("op", op),
		slog.Int64("chat", msg.Chat.ID),
	)

	data, err := c.tg.DownloadFile(ctx, msg.Document.FileID)
	if err != nil {
		log.Error("failed to download replacement document", sl.Err(err))
		return
	}

	if err := c.archive.ReplaceFromDocument(ctx, msg.Chat.ID, data); err != nil {
		if errors.Is(err, service.ErrMalformedReplacement) {
			c.sendWithClose(ctx, msg.Chat.ID, "The uploaded file is not a valid archive document")
		} else {
			log.Error("failed to replace archive", sl.Err(err))
		}
		return
	}

	log.Info("archive replaced manually")

	c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)
}

// registerUser keeps the directory up to date with every chat the
// bot sees, so delegated uploads can resolve the username later.
func (c *Controller) registerUser(msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.UserName == "" {
		return
	}

	err := c.directory.Upsert(models.DirectoryEntry{
		Username: msg.From.UserName,
		Location: msg.Chat.ID,
	})
	if err != nil {
		c.log.Error("failed to register user", slog.String("username", msg.From.UserName), sl.Err(err))
	}
}

func (c *Controller) handlePrivilegedMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)
		c.menuMsg.Reset(ctx)
		c.menuMsg.Show(ctx, promptText, nil)
	case msg.IsCommand() && msg.Command() == "help":
		c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)
		c.sendWithClose(ctx, msg.Chat.ID, privilegedHelpText)
	case msg.Video != nil:
		c.handleDelegatedVideo(ctx, msg)
	case msg.Text != "":
		c.handleUsername(ctx, msg)
	}
}

// handleDelegatedVideo gates a privileged-chat upload on the auth
// session and archives it under the authenticated user.
func (c *Controller) handleDelegatedVideo(ctx context.Context, msg *tgbotapi.Message) {
	const op = "Controller.handleDelegatedVideo"

	entry, err := c.auth.Authorize(ctx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			c.menuMsg.Show(ctx, promptText+"\n\nSorry, your session expired", nil)
		case errors.Is(err, service.ErrSessionInactive):
			c.menuMsg.Show(ctx, promptText, nil)
		default:
			c.log.Error("failed to authorize upload", slog.String("op", op), sl.Err(err))
		}
		c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)
		return
	}

	c.addVideo(ctx, entry.Location, msg)
}

func (c *Controller) handleUsername(ctx context.Context, msg *tgbotapi.Message) {
	const op = "Controller.handleUsername"

	c.deleteMessage(ctx, msg.Chat.ID, msg.MessageID)

	if _, err := c.auth.SubmitUsername(ctx, msg.Text); err != nil {
		if errors.Is(err, service.ErrUsernameNotFound) {
			c.menuMsg.Show(ctx, promptText+"\n\nUsername not found. Please, try again", nil)
			return
		}
		c.log.Error("failed to submit username", slog.String("op", op), sl.Err(err))
		c.menuMsg.Show(ctx, promptText, nil)
	}
	// On success the notifier has already updated the menu
	// with the pending-confirmation state.
}

func (c *Controller) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	const op = "Controller.handleCallback"

	if err := c.tg.AnswerCallback(ctx, cb.ID); err != nil {
		c.log.Warn("failed to answer callback", slog.String("op", op), sl.Err(err))
	}

	if cb.Message == nil {
		return
	}

	if cb.Message.Chat.ID == c.privilegedChat {
		c.handlePrivilegedCallback(ctx, cb)
		return
	}

	path, err := menu.Decode(cb.Data)
	if err != nil {
		c.log.Warn("invalid callback payload", slog.String("op", op), slog.String("data", cb.Data))
		return
	}

	switch path.Kind {
	case menu.KindStart:
		c.render(ctx, cb, startText, menu.StartKeyboard())
	case menu.KindStats:
		c.showStats(ctx, cb)
	case menu.KindHome, menu.KindDay, menu.KindSession, menu.KindFlight:
		c.showTree(ctx, cb, path)
	case menu.KindVideo:
		c.openVideo(ctx, cb, path)
	case menu.KindAuth:
		c.confirmAuth(ctx, cb, path)
	case menu.KindDelete:
		if len(path.Args) == 2 {
			c.deleteMessage(ctx, path.Args[0], int(path.Args[1]))
		}
	default:
		c.log.Warn("unknown callback", slog.String("op", op), slog.String("data", cb.Data))
	}
}

func (c *Controller) showStats(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	const op = "Controller.showStats"

	stats, err := c.archive.Stats(ctx, cb.Message.Chat.ID)
	if err != nil {
		c.log.Error("failed to get stats", slog.String("op", op), sl.Err(err))
		return
	}

	kb := models.Keyboard{{{Label: "<- Back", Data: menu.KindStart}}}
	c.render(ctx, cb, menu.StatsText(stats), kb)
}

// showTree renders one level of the archive menu: days, one day's
// sessions, one session's flights or one flight's videos.
func (c *Controller) showTree(ctx context.Context, cb *tgbotapi.CallbackQuery, path menu.Path) {
	const op = "Controller.showTree"

	chat := cb.Message.Chat.ID

	arch, err := c.archive.Tree(ctx, chat)
	if err != nil {
		c.log.Error("failed to load archive", slog.String("op", op), sl.Err(err))
		return
	}

	var kb models.Keyboard

	switch path.Kind {
	case menu.KindHome:
		kb = menu.DaysKeyboard(arch)
	case menu.KindDay:
		day := arch.Day(path.Date)
		if day == nil {
			c.notFound(ctx, cb, "Day not found")
			return
		}
		kb = menu.SessionsKeyboard(day)
	case menu.KindSession:
		day := arch.Day(path.Date)
		if day == nil {
			c.notFound(ctx, cb, "Session not found")
			return
		}
		session := day.Session(path.Slot)
		if session == nil {
			c.notFound(ctx, cb, "Session not found")
			return
		}
		kb = menu.FlightsKeyboard(path.Date, session)
	case menu.KindFlight:
		day := arch.Day(path.Date)
		if day == nil {
			c.notFound(ctx, cb, "Flight not found")
			return
		}
		session := day.Session(path.Slot)
		if session == nil {
			c.notFound(ctx, cb, "Flight not found")
			return
		}
		flight := session.Flight(path.Flight)
		if flight == nil {
			c.notFound(ctx, cb, "Flight not found")
			return
		}
		kb = menu.VideosKeyboard(path.Date, path.Slot, flight)
	}

	c.render(ctx, cb, menu.ArchiveText(arch, path), kb)
}

func (c *Controller) openVideo(ctx context.Context, cb *tgbotapi.CallbackQuery, path menu.Path) {
	const op = "Controller.openVideo"

	chat := cb.Message.Chat.ID

	video, err := c.archive.FindVideo(ctx, chat, path.Date, path.Slot, path.Flight, path.Video)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			c.notFound(ctx, cb, "Video not found")
			return
		}
		c.log.Error("failed to find video", slog.String("op", op), sl.Err(err))
		return
	}

	back := models.Keyboard{{{
		Label: "<- Back",
		Data:  menu.EncodeFlight(path.Date, path.Slot, path.Flight),
	}}}

	if err := c.tg.SendVideo(ctx, chat, video.AssetRef, back); err != nil {
		c.log.Error("failed to send video", slog.String("op", op), sl.Err(err))
		c.sendWithClose(ctx, chat, "Failed to send the video, please try again")
		return
	}

	c.deleteMessage(ctx, chat, cb.Message.MessageID)
}

// confirmAuth handles the accept/reject press on the challenge
// message in the claimed user's own chat.
func (c *Controller) confirmAuth(ctx context.Context, cb *tgbotapi.CallbackQuery, path menu.Path) {
	const op = "Controller.confirmAuth"

	c.deleteMessage(ctx, cb.Message.Chat.ID, cb.Message.MessageID)

	accept := len(path.Args) == 1 && path.Args[0] == 1

	session, err := c.auth.Confirm(ctx, accept)
	if err != nil {
		if errors.Is(err, service.ErrConfirmationRejected) {
			c.menuMsg.Show(ctx, promptText+"\n\nAuthentication was rejected. Please, try again", nil)
			return
		}
		c.log.Warn("confirmation failed", slog.String("op", op), sl.Err(err))
		return
	}

	c.menuMsg.Show(ctx,
		"Hi, "+session.Username+"!\nUpload your videos",
		models.Keyboard{{{Label: "Logout", Data: menu.KindEndSession}}},
	)
}

func (c *Controller) handlePrivilegedCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	path, err := menu.Decode(cb.Data)
	if err != nil {
		c.log.Warn("invalid privileged callback", slog.String("data", cb.Data))
		return
	}

	switch path.Kind {
	case menu.KindCancelAuth:
		if len(path.Args) == 2 {
			c.deleteMessage(ctx, path.Args[0], int(path.Args[1]))
		}
		c.auth.Cancel(ctx)
		c.menuMsg.Show(ctx, promptText, nil)
	case menu.KindEndSession:
		c.auth.Logout(ctx)
		c.menuMsg.Show(ctx, promptText, nil)
	}
}

// render edits the callback's message in place when it is a text
// message; video messages cannot be edited into text, so those are
// replaced.
func (c *Controller) render(ctx context.Context, cb *tgbotapi.CallbackQuery, text string, kb models.Keyboard) {
	chat := cb.Message.Chat.ID

	if cb.Message.Text != "" {
		if err := c.tg.EditMessage(ctx, chat, cb.Message.MessageID, text, kb); err == nil {
			return
		}
	}

	c.deleteMessage(ctx, chat, cb.Message.MessageID)

	if _, err := c.tg.SendMessage(ctx, chat, text, kb); err != nil {
		c.log.Error("failed to send menu", slog.Int64("chat", chat), sl.Err(err))
	}
}

func (c *Controller) notFound(ctx context.Context, cb *tgbotapi.CallbackQuery, text string) {
	c.render(ctx, cb, startText, menu.StartKeyboard())
	c.sendWithClose(ctx, cb.Message.Chat.ID, text)
}

// sendWithClose sends a notice carrying a button that deletes it.
// The button payload needs the message id, so the message is sent
// first and the keyboard attached by edit, like the original bot did.
func (c *Controller) sendWithClose(ctx context.Context, chat int64, text string) {
	msgID, err := c.tg.SendMessage(ctx, chat, text, nil)
	if err != nil {
		c.log.Error("failed to send notice", slog.Int64("chat", chat), sl.Err(err))
		return
	}

	if err := c.tg.EditMessage(ctx, chat, msgID, text, menu.CloseKeyboard(chat, int64(msgID))); err != nil {
		c.log.Warn("failed to attach close button", slog.Int64("chat", chat), sl.Err(err))
	}
}

func (c *Controller) deleteMessage(ctx context.Context, chat int64, messageID int) {
	if err := c.tg.DeleteMessage(ctx, chat, messageID); err != nil {
		c.log.Warn("failed to delete message", slog.Int64("chat", chat), sl.Err(err))
	}
}
