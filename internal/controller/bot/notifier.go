package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/service/menu"
)

const (
	promptText    = "To upload videos - please send your username"
	challengeText = "Please, confirm your\nauthentication attempt"
)

// Notifier delivers the auth machine's outbound messages: the
// confirmation challenge to the claimed user's chat and session
// updates to the privileged menu.
type Notifier struct {
	log     *slog.Logger
	tg      MenuTransport
	menuMsg *MenuMessage
}

func NewNotifier(log *slog.Logger, tg MenuTransport, menuMsg *MenuMessage) *Notifier {
	return &Notifier{
		log:     log,
		tg:      tg,
		menuMsg: menuMsg,
	}
}

// SendChallenge sends the accept/reject keyboard to the claimed
// user's own chat and puts a cancel button on the privileged menu.
func (n *Notifier) SendChallenge(ctx context.Context, entry models.DirectoryEntry) error {
	const op = "Notifier.SendChallenge"

	msgID, err := n.tg.SendMessage(ctx, entry.Location, challengeText, menu.ConfirmKeyboard())
	if err != nil {
		n.log.Error("failed to send challenge", slog.String("username", entry.Username), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	n.menuMsg.Show(ctx,
		promptText+"\n\nPlease, confirm authentication from your Telegram account",
		models.Keyboard{{{
			Label: "Cancel",
			Data:  menu.EncodeCancelAuth(entry.Location, int64(msgID)),
		}}},
	)

	return nil
}

// SessionExpired resets the privileged menu to the username prompt.
func (n *Notifier) SessionExpired(entry models.DirectoryEntry) {
	n.log.Info("notifying session expiry", slog.String("username", entry.Username))

	n.menuMsg.Show(context.Background(), promptText+"\n\nSorry, your session expired", nil)
}
