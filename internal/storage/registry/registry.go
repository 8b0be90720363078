package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
)

// Registry maps known usernames to the chat holding their archive.
// It is persisted as its own JSON document, loaded once on open and
// written through on every mutation.
type Registry struct {
	log  *slog.Logger
	path string

	mu      sync.Mutex
	entries []models.DirectoryEntry
}

type document struct {
	Users []models.DirectoryEntry `json:"users"`
}

func New(log *slog.Logger, path string) (*Registry, error) {
	const op = "storage.registry.New"

	r := &Registry{
		log:     log,
		path:    path,
		entries: []models.DirectoryEntry{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrMalformedDocument)
	}

	r.entries = doc.Users

	return r, nil
}

// Upsert inserts or updates an entry keyed by location.
func (r *Registry) Upsert(entry models.DirectoryEntry) error {
	const op = "storage.registry.Upsert"

	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for i := range r.entries {
		if r.entries[i].Location == entry.Location {
			r.entries[i].Username = entry.Username
			found = true
			break
		}
	}
	if !found {
		r.entries = append(r.entries, entry)
	}

	if err := r.persist(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ByUsername finds an entry by case-insensitive exact username match.
func (r *Registry) ByUsername(name string) (models.DirectoryEntry, error) {
	const op = "storage.registry.ByUsername"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if strings.EqualFold(e.Username, name) {
			return e, nil
		}
	}

	return models.DirectoryEntry{}, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
}

// ByLocation finds an entry by its chat location.
func (r *Registry) ByLocation(location int64) (models.DirectoryEntry, error) {
	const op = "storage.registry.ByLocation"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Location == location {
			return e, nil
		}
	}

	return models.DirectoryEntry{}, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
}

// All returns a copy of the directory.
func (r *Registry) All() []models.DirectoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.DirectoryEntry, len(r.entries))
	copy(out, r.entries)

	return out
}

func (r *Registry) persist() error {
	data, err := json.MarshalIndent(document{Users: r.entries}, "", "    ")
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, r.path)
}
