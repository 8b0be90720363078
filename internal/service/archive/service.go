package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/filename"
	"github.com/MrFrederic/iflyvideosbot/internal/lib/logger/sl"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/service"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
)

// durationStep is the rounding step for flight durations:
// camera exports jitter by a second or two, recordings of one
// flight must land on the same length.
const durationStep = 5

type Archive struct {
	log   *slog.Logger
	store ArchiveStore
	now   func() time.Time
}

type ArchiveStore interface {
	Load(ctx context.Context, owner int64, forceReload bool) (*models.Archive, error)
	Save(ctx context.Context, owner int64, a *models.Archive) error
	Bootstrap(ctx context.Context, owner int64) (*models.Archive, error)
}

func New(
	log *slog.Logger,
	store ArchiveStore,
) *Archive {
	return &Archive{
		log:   log,
		store: store,
		now:   time.Now,
	}
}

// AddVideo parses the uploaded clip's filename and inserts it into
// the owner's archive, creating day, session and flight buckets as
// needed. Duplicate filenames anywhere in the archive are ignored
// and reported as service.ErrDuplicateAsset. The archive is saved
// only when a video was actually inserted.
func (a *Archive) AddVideo(ctx context.Context, owner int64, upload models.Upload) (models.Video, error) {
	const op = "Archive.AddVideo"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
		slog.String("filename", upload.FileName),
	)

	meta, err := filename.Parse(upload.FileName)
	if err != nil {
		log.Warn("rejected malformed filename", sl.Err(err))
		return models.Video{}, fmt.Errorf("%s: %w", op, err)
	}

	arch, err := a.loadOrBootstrap(ctx, owner)
	if err != nil {
		return models.Video{}, fmt.Errorf("%s: %w", op, err)
	}

	day := arch.FindOrCreateDay(meta.Date)
	session := day.FindOrCreateSession(meta.TimeSlot)
	flight := session.FindOrCreateFlight(meta.Flight, roundDuration(upload.Duration))

	video, inserted := arch.InsertVideo(flight, models.Video{
		CameraName: meta.Camera,
		FileName:   upload.FileName,
		AssetRef:   upload.AssetRef,
	})
	if !inserted {
		log.Info("ignoring duplicate video")
		return models.Video{}, fmt.Errorf("%s: %w", op, service.ErrDuplicateAsset)
	}

	if err := a.store.Save(ctx, owner, arch); err != nil {
		log.Error("failed to save archive", sl.Err(err))
		return models.Video{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(
		"added video",
		slog.Int64("videoID", video.ID),
		slog.Int64("flight", meta.Flight),
		slog.String("slot", meta.TimeSlot),
		slog.String("camera", meta.Camera),
	)

	return video, nil
}

// Tree returns the owner's archive for read-only rendering.
func (a *Archive) Tree(ctx context.Context, owner int64) (*models.Archive, error) {
	const op = "Archive.Tree"

	arch, err := a.loadOrBootstrap(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return arch, nil
}

// FindVideo resolves a full tree path to a single video.
func (a *Archive) FindVideo(ctx context.Context, owner int64, date int64, slot string, flight int64, videoID int64) (models.Video, error) {
	const op = "Archive.FindVideo"

	arch, err := a.loadOrBootstrap(ctx, owner)
	if err != nil {
		return models.Video{}, fmt.Errorf("%s: %w", op, err)
	}

	v := arch.FindVideo(date, slot, flight, videoID)
	if v == nil {
		return models.Video{}, fmt.Errorf("%s: %w", op, service.ErrVideoNotFound)
	}

	return *v, nil
}

// Stats returns total flight time and days since the first archived day.
func (a *Archive) Stats(ctx context.Context, owner int64) (models.Stats, error) {
	const op = "Archive.Stats"

	arch, err := a.loadOrBootstrap(ctx, owner)
	if err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Stats{
		FlightSeconds:  arch.TotalDuration(),
		DaysSinceFirst: arch.DaysSinceEarliest(a.now()),
	}, nil
}

// Reset replaces the owner's archive with an empty one.
func (a *Archive) Reset(ctx context.Context, owner int64) error {
	const op = "Archive.Reset"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
	)

	if err := a.store.Save(ctx, owner, models.NewArchive()); err != nil {
		log.Error("failed to reset archive", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("archive reset")

	return nil
}

// ReplaceFromDocument overwrites the owner's archive with a manually
// uploaded document. The bytes must detect as JSON and parse into the
// archive schema, otherwise nothing is written.
func (a *Archive) ReplaceFromDocument(ctx context.Context, owner int64, data []byte) error {
	const op = "Archive.ReplaceFromDocument"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("owner", owner),
	)

	if !mimetype.Detect(data).Is("application/json") {
		log.Warn("replacement document is not JSON")
		return fmt.Errorf("%s: %w", op, service.ErrMalformedReplacement)
	}

	arch := models.NewArchive()
	if err := json.Unmarshal(data, arch); err != nil {
		log.Warn("replacement document does not match schema", sl.Err(err))
		return fmt.Errorf("%s: %w", op, service.ErrMalformedReplacement)
	}
	if arch.Days == nil {
		arch.Days = []*models.Day{}
	}

	if err := a.store.Save(ctx, owner, arch); err != nil {
		log.Error("failed to save replacement archive", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("archive replaced manually", slog.Int("days", len(arch.Days)))

	return nil
}

// loadOrBootstrap loads the archive, creating a fresh remote document
// when none exists yet.
func (a *Archive) loadOrBootstrap(ctx context.Context, owner int64) (*models.Archive, error) {
	arch, err := a.store.Load(ctx, owner, false)
	if err == nil {
		return arch, nil
	}
	if !errors.Is(err, storage.ErrStorageUnavailable) {
		return nil, err
	}

	a.log.Warn("archive unavailable, bootstrapping", slog.Int64("owner", owner), sl.Err(err))

	arch, err = a.store.Bootstrap(ctx, owner)
	if err != nil {
		return nil, service.ErrArchiveUnavailable
	}

	return arch, nil
}

func roundDuration(seconds int64) int64 {
	return (seconds + durationStep/2) / durationStep * durationStep
}
