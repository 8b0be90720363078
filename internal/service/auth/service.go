package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/service"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
)

// Auth is the delegated-upload session of the privileged chat:
// Idle -> PendingConfirmation (username resolved, challenge sent)
// -> Active (confirmed, uploads accepted until expiry) -> Idle.
// One instance per privileged chat; a new username submission
// overwrites any pending claim.
type Auth struct {
	log           *slog.Logger
	directory     Directory
	notifier      Notifier
	scheduler     Scheduler
	sessionLength time.Duration
	grace         time.Duration

	mu           sync.Mutex
	session      models.AuthSession
	cancelExpiry func() bool

	now func() time.Time
}

type Directory interface {
	ByUsername(name string) (models.DirectoryEntry, error)
}

type Notifier interface {
	SendChallenge(ctx context.Context, entry models.DirectoryEntry) error
	SessionExpired(entry models.DirectoryEntry)
}

type Scheduler interface {
	ScheduleOnce(d time.Duration, fn func()) func() bool
}

func New(
	log *slog.Logger,
	directory Directory,
	notifier Notifier,
	scheduler Scheduler,
	sessionLength time.Duration,
	grace time.Duration,
) *Auth {
	return &Auth{
		log:           log,
		directory:     directory,
		notifier:      notifier,
		scheduler:     scheduler,
		sessionLength: sessionLength,
		grace:         grace,
		session:       models.AuthSession{Status: models.AuthIdle},
		now:           time.Now,
	}
}

// SubmitUsername resolves the submitted name against the directory
// and, on a match, sends a confirmation challenge to the resolved
// chat. An unknown name reports service.ErrUsernameNotFound and
// leaves the machine state unchanged. A match overwrites any pending
// claim.
func (a *Auth) SubmitUsername(ctx context.Context, text string) (models.AuthSession, error) {
	const op = "Auth.SubmitUsername"

	name := normalizeUsername(text)

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", name),
	)

	entry, err := a.directory.ByUsername(name)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			log.Warn("username not found")
			return a.Session(), fmt.Errorf("%s: %w", op, service.ErrUsernameNotFound)
		}
		log.Error("failed to resolve username", sl.Err(err))
		return a.Session(), fmt.Errorf("%s: %w", op, err)
	}

	if err := a.notifier.SendChallenge(ctx, entry); err != nil {
		log.Error("failed to send confirmation challenge", sl.Err(err))
		a.toIdle()
		return a.Session(), fmt.Errorf("%s: %w", op, err)
	}

	a.mu.Lock()
	a.stopExpiryLocked()
	a.session = models.AuthSession{
		Username:  entry.Username,
		Location:  entry.Location,
		ExpiresAt: a.now().Unix(),
		Status:    models.AuthPendingConfirmation,
	}
	session := a.session
	a.mu.Unlock()

	log.Info("confirmation challenge sent", slog.Int64("location", entry.Location))

	return session, nil
}

// Confirm resolves a pending claim. Rejection returns the machine to
// Idle with service.ErrConfirmationRejected. Acceptance activates the
// session until now + session length and arms the one-shot expiry
// check; nothing but Confirm ever extends the window.
func (a *Auth) Confirm(_ context.Context, accept bool) (models.AuthSession, error) {
	const op = "Auth.Confirm"

	a.mu.Lock()
	defer a.mu.Unlock()

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", a.session.Username),
	)

	if a.session.Status != models.AuthPendingConfirmation {
		log.Warn("confirmation without pending claim")
		return a.session, fmt.Errorf("%s: %w", op, service.ErrSessionInactive)
	}

	if !accept {
		log.Info("confirmation rejected")
		a.toIdleLocked()
		return a.session, fmt.Errorf("%s: %w", op, service.ErrConfirmationRejected)
	}

	a.session.Status = models.AuthActive
	a.session.ExpiresAt = a.now().Add(a.sessionLength).Unix()

	a.stopExpiryLocked()
	a.cancelExpiry = a.scheduler.ScheduleOnce(a.sessionLength+a.grace, a.expire)

	log.Info("session activated", slog.Int64("expiresAt", a.session.ExpiresAt))

	return a.session, nil
}

// Authorize gates a delegated upload. It returns the directory entry
// of the authenticated user while the session is active. An expired
// session resets the machine to Idle and reports
// service.ErrSessionExpired; uploads never extend the window.
func (a *Auth) Authorize(_ context.Context) (models.DirectoryEntry, error) {
	const op = "Auth.Authorize"

	a.mu.Lock()
	defer a.mu.Unlock()

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", a.session.Username),
	)

	if a.session.Status != models.AuthActive {
		return models.DirectoryEntry{}, fmt.Errorf("%s: %w", op, service.ErrSessionInactive)
	}

	if a.now().Unix() >= a.session.ExpiresAt {
		log.Info("session expired on upload attempt")
		a.toIdleLocked()
		return models.DirectoryEntry{}, fmt.Errorf("%s: %w", op, service.ErrSessionExpired)
	}

	return models.DirectoryEntry{
		Username: a.session.Username,
		Location: a.session.Location,
	}, nil
}

// Logout terminates the session immediately, independent of expiry.
func (a *Auth) Logout(_ context.Context) {
	const op = "Auth.Logout"

	a.mu.Lock()
	defer a.mu.Unlock()

	a.log.Info("session terminated", slog.String("op", op), slog.String("username", a.session.Username))

	a.toIdleLocked()
}

// Cancel withdraws a pending claim; an explicit termination like Logout.
func (a *Auth) Cancel(ctx context.Context) {
	a.Logout(ctx)
}

// Session returns a snapshot of the machine state.
func (a *Auth) Session() models.AuthSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// expire is the scheduled expiry check. It re-validates state under
// the lock: the session may have been logged out or replaced between
// scheduling and firing, in which case this is a no-op.
func (a *Auth) expire() {
	const op = "Auth.expire"

	a.mu.Lock()

	if a.session.Status != models.AuthActive {
		a.mu.Unlock()
		return
	}

	if now := a.now().Unix(); now < a.session.ExpiresAt {
		remaining := time.Duration(a.session.ExpiresAt-now) * time.Second
		a.cancelExpiry = a.scheduler.ScheduleOnce(remaining+a.grace, a.expire)
		a.mu.Unlock()
		return
	}

	entry := models.DirectoryEntry{
		Username: a.session.Username,
		Location: a.session.Location,
	}
	a.toIdleLocked()
	a.mu.Unlock()

	a.log.Info("session expired", slog.String("op", op), slog.String("username", entry.Username))

	a.notifier.SessionExpired(entry)
}

func (a *Auth) toIdle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toIdleLocked()
}

func (a *Auth) toIdleLocked() {
	a.stopExpiryLocked()
	a.session = models.AuthSession{Status: models.AuthIdle}
}

func (a *Auth) stopExpiryLocked() {
	if a.cancelExpiry != nil {
		a.cancelExpiry()
		a.cancelExpiry = nil
	}
}

// normalizeUsername strips chat-client decorations around a username:
// surrounding space, t.me links, leading @, and case.
func normalizeUsername(text string) string {
	name := strings.TrimSpace(text)
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "t.me/")
	name = strings.TrimPrefix(name, "@")
	return strings.ToLower(name)
}
