package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
)

const (
	documentName = "data.json"

	storageCaption = "This is a service message. Please, do not delete or unpin it! " +
		"This may result in losing all your data."
)

// Client wraps the Bot API. Every call is a single bounded attempt,
// retry policy belongs to the caller.
type Client struct {
	log  *slog.Logger
	api  *tgbotapi.BotAPI
	http *http.Client
}

func New(log *slog.Logger, token string, timeout time.Duration) (*Client, error) {
	const op = "telegram.New"

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("authorized on bot account", slog.String("username", api.Self.UserName))

	return &Client{
		log:  log,
		api:  api,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Updates returns the long-polling update stream.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	return c.api.GetUpdatesChan(u)
}

// Stop terminates long polling.
func (c *Client) Stop() {
	c.api.StopReceivingUpdates()
}

// FetchDocument downloads the storage document pinned in the given
// chat. Missing pin or missing attachment yields storage.ErrNoDocument.
func (c *Client) FetchDocument(ctx context.Context, location int64) ([]byte, error) {
	const op = "telegram.FetchDocument"

	pinned, err := c.pinnedMessage(location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pinned == nil || pinned.Document == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNoDocument)
	}

	data, err := c.DownloadFile(ctx, pinned.Document.FileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}

// ReplaceDocument overwrites the pinned storage document with data.
func (c *Client) ReplaceDocument(ctx context.Context, location int64, data []byte) error {
	const op = "telegram.ReplaceDocument"

	pinned, err := c.pinnedMessage(location)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if pinned == nil || pinned.Document == nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNoDocument)
	}

	media := tgbotapi.NewInputMediaDocument(tgbotapi.FileBytes{Name: documentName, Bytes: data})
	media.Caption = storageCaption

	cfg := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:    location,
			MessageID: pinned.MessageID,
		},
		Media: media,
	}

	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CreateDocument sends a fresh storage document to the chat and pins it.
func (c *Client) CreateDocument(_ context.Context, location int64, data []byte) error {
	const op = "telegram.CreateDocument"

	doc := tgbotapi.NewDocument(location, tgbotapi.FileBytes{Name: documentName, Bytes: data})
	doc.Caption = storageCaption

	sent, err := c.api.Send(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pin := tgbotapi.PinChatMessageConfig{
		ChatID:              location,
		MessageID:           sent.MessageID,
		DisableNotification: true,
	}
	if _, err := c.api.Request(pin); err != nil {
		c.log.Error("failed to pin storage message", slog.Int64("chat", location), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("storage message created and pinned", slog.Int64("chat", location))

	return nil
}

// DownloadFile fetches file content through the file URL the Bot API
// hands out.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	const op = "telegram.DownloadFile"

	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}

// SendMessage sends text with an optional inline keyboard and returns
// the new message id.
func (c *Client) SendMessage(_ context.Context, chat int64, text string, kb models.Keyboard) (int, error) {
	const op = "telegram.SendMessage"

	msg := tgbotapi.NewMessage(chat, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup := toMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return sent.MessageID, nil
}

// EditMessage replaces text and keyboard of an existing message.
func (c *Client) EditMessage(_ context.Context, chat int64, messageID int, text string, kb models.Keyboard) error {
	const op = "telegram.EditMessage"

	edit := tgbotapi.NewEditMessageText(chat, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = toMarkup(kb)

	if _, err := c.api.Send(edit); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(_ context.Context, chat int64, messageID int) error {
	const op = "telegram.DeleteMessage"

	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chat, messageID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SendVideo sends an archived clip by its stored asset reference.
func (c *Client) SendVideo(_ context.Context, chat int64, assetRef string, kb models.Keyboard) error {
	const op = "telegram.SendVideo"

	video := tgbotapi.NewVideo(chat, tgbotapi.FileID(assetRef))
	if markup := toMarkup(kb); markup != nil {
		video.ReplyMarkup = markup
	}

	if _, err := c.api.Send(video); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AnswerCallback acknowledges a button press.
func (c *Client) AnswerCallback(_ context.Context, callbackID string) error {
	const op = "telegram.AnswerCallback"

	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) pinnedMessage(location int64) (*tgbotapi.Message, error) {
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: location},
	})
	if err != nil {
		return nil, err
	}

	return chat.PinnedMessage, nil
}

func toMarkup(kb models.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, btns)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)

	return &markup
}
