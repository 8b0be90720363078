package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
)

// DocumentClient is the remote side of the store: one attached
// document per owner chat, fetched and replaced as a whole.
// Implementations make a single bounded attempt per call.
type DocumentClient interface {
	FetchDocument(ctx context.Context, location int64) ([]byte, error)
	ReplaceDocument(ctx context.Context, location int64, data []byte) error
	CreateDocument(ctx context.Context, location int64, data []byte) error
}

// Store makes one archive per owner durable behind three tiers:
// a memory cache (authoritative between explicit reloads), the
// remote document the user can inspect or replace manually, and
// an on-disk backup used only to recover a lost remote document.
type Store struct {
	log       *slog.Logger
	client    DocumentClient
	backupDir string

	mu     sync.Mutex
	cache  map[int64]*models.Archive
	owners map[int64]*sync.Mutex
}

func New(log *slog.Logger, client DocumentClient, backupDir string) (*Store, error) {
	const op = "storage.document.New"

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{
		log:       log,
		client:    client,
		backupDir: backupDir,
		cache:     make(map[int64]*models.Archive),
		owners:    make(map[int64]*sync.Mutex),
	}, nil
}

// Load returns the owner's archive. The memory cache wins unless
// forceReload is set; otherwise the remote document is fetched and
// parsed. Any remote failure surfaces as ErrStorageUnavailable and
// leaves the cache untouched, the caller decides whether to fall
// back to Bootstrap.
func (s *Store) Load(ctx context.Context, owner int64, forceReload bool) (*models.Archive, error) {
	const op = "storage.document.Load"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
	)

	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	if !forceReload {
		if a := s.cached(owner); a != nil {
			return a, nil
		}
	}

	data, err := s.client.FetchDocument(ctx, owner)
	if err != nil {
		log.Warn("failed to fetch remote document", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, storage.ErrStorageUnavailable)
	}

	a, err := decode(data)
	if err != nil {
		log.Warn("remote document malformed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, storage.ErrStorageUnavailable)
	}

	s.setCached(owner, a)

	log.Info("loaded archive", slog.Int("days", len(a.Days)))

	return a, nil
}

// Save serializes the archive fully in memory, updates the cache,
// replaces the remote document and writes the backup file. A remote
// failure yields ErrRemoteWriteFailed but the backup write is still
// attempted; a backup failure is only logged.
func (s *Store) Save(ctx context.Context, owner int64, a *models.Archive) error {
	const op = "storage.document.Save"

	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	return s.flush(ctx, op, owner, a, false)
}

// Bootstrap creates a fresh remote document for an owner that has
// none. Recovery sources in priority order: current memory cache,
// well-formed backup file, empty archive. Exactly one is chosen.
func (s *Store) Bootstrap(ctx context.Context, owner int64) (*models.Archive, error) {
	const op = "storage.document.Bootstrap"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
	)

	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	a := s.cached(owner)
	if a != nil {
		log.Info("bootstrapping from memory cache")
	} else {
		if backup, err := s.readBackup(owner); err == nil {
			log.Info("bootstrapping from backup file")
			a = backup
		} else {
			log.Info("bootstrapping empty archive", sl.Err(err))
			a = models.NewArchive()
		}
	}

	if err := s.flush(ctx, op, owner, a, true); err != nil {
		return nil, err
	}

	return a, nil
}

// LoadBackup reads the owner's backup file, bypassing cache and remote.
func (s *Store) LoadBackup(owner int64) (*models.Archive, error) {
	const op = "storage.document.LoadBackup"

	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	a, err := s.readBackup(owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

func (s *Store) flush(ctx context.Context, op string, owner int64, a *models.Archive, create bool) error {
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
	)

	data, err := encode(a)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.setCached(owner, a)

	var remoteErr error
	if create {
		remoteErr = s.client.CreateDocument(ctx, owner, data)
	} else {
		remoteErr = s.client.ReplaceDocument(ctx, owner, data)
	}
	if remoteErr != nil {
		log.Error("remote document write failed", sl.Err(remoteErr))
	}

	if err := s.writeBackup(owner, data); err != nil {
		log.Error("backup write failed", sl.Err(err))
	}

	if remoteErr != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrRemoteWriteFailed)
	}

	log.Info("saved archive", slog.Int("bytes", len(data)))

	return nil
}

func (s *Store) backupPath(owner int64) string {
	return filepath.Join(s.backupDir, fmt.Sprintf("%d.json", owner))
}

func (s *Store) readBackup(owner int64) (*models.Archive, error) {
	data, err := os.ReadFile(s.backupPath(owner))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNoDocument
		}
		return nil, err
	}

	return decode(data)
}

func (s *Store) writeBackup(owner int64, data []byte) error {
	path := s.backupPath(owner)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func (s *Store) cached(owner int64) *models.Archive {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[owner]
}

func (s *Store) setCached(owner int64, a *models.Archive) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[owner] = a
}

// ownerLock serializes all operations of one owner.
func (s *Store) ownerLock(owner int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.owners[owner]
	if !ok {
		lock = &sync.Mutex{}
		s.owners[owner] = lock
	}

	return lock
}

func encode(a *models.Archive) ([]byte, error) {
	return json.MarshalIndent(a, "", "    ")
}

func decode(data []byte) (*models.Archive, error) {
	a := models.NewArchive()
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrMalformedDocument, err)
	}
	if a.Days == nil {
		a.Days = []*models.Day{}
	}
	return a, nil
}
