package archive_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrFrederic/iflyvideosbot/internal/lib/filename"
	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/service"
	"github.com/MrFrederic/iflyvideosbot/internal/service/archive"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
)

const owner int64 = 932162499

// fakeStore serves a single in-memory archive and counts calls.
type fakeStore struct {
	archive *models.Archive

	loadCalls      int
	saveCalls      int
	bootstrapCalls int

	unavailable bool
}

func (s *fakeStore) Load(_ context.Context, _ int64, _ bool) (*models.Archive, error) {
	s.loadCalls++
	if s.unavailable || s.archive == nil {
		return nil, storage.ErrStorageUnavailable
	}
	return s.archive, nil
}

func (s *fakeStore) Save(_ context.Context, _ int64, a *models.Archive) error {
	s.saveCalls++
	s.archive = a
	return nil
}

func (s *fakeStore) Bootstrap(_ context.Context, _ int64) (*models.Archive, error) {
	s.bootstrapCalls++
	if s.unavailable {
		return nil, storage.ErrRemoteWriteFailed
	}
	s.archive = models.NewArchive()
	return s.archive, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestAddVideo(t *testing.T) {
	store := &fakeStore{}
	svc := archive.New(discardLogger(), store)
	ctx := context.Background()

	video, err := svc.AddVideo(ctx, owner, models.Upload{
		FileName: "GoPro_Cam_Door_12_2024_03_15_14_07.mp4",
		AssetRef: "file-abc",
		Duration: 92,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), video.ID)
	assert.Equal(t, "Door", video.CameraName)
	assert.Equal(t, 1, store.bootstrapCalls)
	assert.Equal(t, 1, store.saveCalls)

	f := store.archive.Day(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Unix()).
		Session("14:00").
		Flight(12)
	require.NotNil(t, f)
	// 92s rounds to the 5s step
	assert.Equal(t, int64(90), f.Length)
	require.Len(t, f.Videos, 1)
}

func TestAddVideoDuplicateIsNotSaved(t *testing.T) {
	store := &fakeStore{}
	svc := archive.New(discardLogger(), store)
	ctx := context.Background()

	upload := models.Upload{
		FileName: "GoPro_Cam_Door_12_2024_03_15_14_07.mp4",
		AssetRef: "file-abc",
		Duration: 90,
	}

	_, err := svc.AddVideo(ctx, owner, upload)
	require.NoError(t, err)

	_, err = svc.AddVideo(ctx, owner, upload)
	require.ErrorIs(t, err, service.ErrDuplicateAsset)

	assert.Equal(t, 1, store.saveCalls)
}

func TestAddVideoMalformedFilename(t *testing.T) {
	store := &fakeStore{}
	svc := archive.New(discardLogger(), store)

	_, err := svc.AddVideo(context.Background(), owner, models.Upload{
		FileName: "VID_20240315.mp4",
		AssetRef: "file-abc",
	})
	require.ErrorIs(t, err, filename.ErrMalformedFilename)

	// rejected before any storage round trip
	assert.Zero(t, store.loadCalls)
	assert.Zero(t, store.saveCalls)
}

func TestAddVideoStorageUnavailable(t *testing.T) {
	store := &fakeStore{unavailable: true}
	svc := archive.New(discardLogger(), store)

	_, err := svc.AddVideo(context.Background(), owner, models.Upload{
		FileName: "GoPro_Cam_Door_12_2024_03_15_14_07.mp4",
		AssetRef: "file-abc",
	})
	require.ErrorIs(t, err, service.ErrArchiveUnavailable)
}

func TestFindVideo(t *testing.T) {
	store := &fakeStore{}
	svc := archive.New(discardLogger(), store)
	ctx := context.Background()

	added, err := svc.AddVideo(ctx, owner, models.Upload{
		FileName: "GoPro_Cam_Door_12_2024_03_15_14_07.mp4",
		AssetRef: "file-abc",
		Duration: 90,
	})
	require.NoError(t, err)

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Unix()

	got, err := svc.FindVideo(ctx, owner, date, "14:00", 12, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)

	_, err = svc.FindVideo(ctx, owner, date, "14:00", 12, added.ID+1)
	require.ErrorIs(t, err, service.ErrVideoNotFound)
}

func TestStats(t *testing.T) {
	store := &fakeStore{}
	svc := archive.New(discardLogger(), store)
	ctx := context.Background()

	for _, name := range []string{
		"GoPro_Cam_Door_12_2024_03_15_14_07.mp4",
		"GoPro_Cam_Side_12_2024_03_15_14_09.mp4",
		"GoPro_Cam_Door_1_2024_03_16_10_00.mp4",
	} {
		_, err := svc.AddVideo(ctx, owner, models.Upload{FileName: name, AssetRef: name, Duration: 60})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, owner)
	require.NoError(t, err)

	// two distinct flights of 60s each, shared flight counted once
	assert.Equal(t, int64(120), stats.FlightSeconds)
	assert.Greater(t, stats.DaysSinceFirst, 0.0)
}

func TestReset(t *testing.T) {
	store := &fakeStore{}
	svc := archive.New(discardLogger(), store)
	ctx := context.Background()

	_, err := svc.AddVideo(ctx, owner, models.Upload{
		FileName: "GoPro_Cam_Door_12_2024_03_15_14_07.mp4",
		AssetRef: "file-abc",
		Duration: 90,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, owner))
	assert.Empty(t, store.archive.Days)
}

func TestReplaceFromDocument(t *testing.T) {
	valid := `{"days":[{"date":1710460800,"sessions":[{"time_slot":"14:00","flights":[{"flight_number":12,"length":90,"videos":[{"video_id":1,"camera_name":"Door","file_name":"a.mp4","asset_reference":"ref"}]}]}]}]}`

	testCases := []struct {
		desc    string
		data    string
		wantErr error
	}{
		{desc: "valid archive", data: valid},
		{desc: "empty archive", data: `{"days":[]}`},
		{desc: "not json", data: "camera footage bytes", wantErr: service.ErrMalformedReplacement},
		{desc: "wrong schema type", data: `{"days":"oops"}`, wantErr: service.ErrMalformedReplacement},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			store := &fakeStore{}
			svc := archive.New(discardLogger(), store)

			err := svc.ReplaceFromDocument(context.Background(), owner, []byte(tc.data))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Zero(t, store.saveCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, store.saveCalls)
			require.NotNil(t, store.archive.Days)
		})
	}
}
