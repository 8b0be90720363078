package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
)

// MenuMessage is the single pinned-to-flow menu of the privileged
// chat. It is edited in place; if editing fails (message deleted by
// hand, chat history cleared) a fresh message is sent instead.
type MenuMessage struct {
	log  *slog.Logger
	tg   MenuTransport
	chat int64

	mu sync.Mutex
	id int
}

type MenuTransport interface {
	SendMessage(ctx context.Context, chat int64, text string, kb models.Keyboard) (int, error)
	EditMessage(ctx context.Context, chat int64, messageID int, text string, kb models.Keyboard) error
	DeleteMessage(ctx context.Context, chat int64, messageID int) error
}

func NewMenuMessage(log *slog.Logger, tg MenuTransport, chat int64) *MenuMessage {
	return &MenuMessage{
		log:  log,
		tg:   tg,
		chat: chat,
	}
}

// Show renders text and keyboard into the menu message.
func (m *MenuMessage) Show(ctx context.Context, text string, kb models.Keyboard) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id != 0 {
		if err := m.tg.EditMessage(ctx, m.chat, m.id, text, kb); err == nil {
			return
		}
	}

	id, err := m.tg.SendMessage(ctx, m.chat, text, kb)
	if err != nil {
		m.log.Error("failed to send menu message", slog.Int64("chat", m.chat), sl.Err(err))
		return
	}

	m.id = id
}

// Reset deletes the current menu message so the next Show starts fresh.
func (m *MenuMessage) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id == 0 {
		return
	}

	if err := m.tg.DeleteMessage(ctx, m.chat, m.id); err != nil {
		m.log.Warn("failed to delete menu message", slog.Int64("chat", m.chat), sl.Err(err))
	}

	m.id = 0
}
