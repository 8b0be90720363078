package models_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
)

func day(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

func TestFindOrCreateDayKeepsOrder(t *testing.T) {
	a := models.NewArchive()

	dates := []int64{
		day(2024, 3, 15),
		day(2024, 1, 2),
		day(2024, 6, 1),
		day(2023, 12, 31),
		day(2024, 3, 15), // existing
	}

	for _, d := range dates {
		a.FindOrCreateDay(d)

		for i := 1; i < len(a.Days); i++ {
			assert.Less(t, a.Days[i-1].Date, a.Days[i].Date)
		}
	}

	require.Len(t, a.Days, 4)
}

func TestFindOrCreateSessionKeepsOrder(t *testing.T) {
	a := models.NewArchive()
	d := a.FindOrCreateDay(day(2024, 3, 15))

	slots := []string{"14:00", "09:30", "18:00", "09:00", "14:00"}

	for _, slot := range slots {
		d.FindOrCreateSession(slot)
	}

	require.Len(t, d.Sessions, 4)

	got := make([]string, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		got = append(got, s.TimeSlot)
	}
	assert.Equal(t, []string{"09:00", "09:30", "14:00", "18:00"}, got)
}

func TestFindOrCreateFlight(t *testing.T) {
	a := models.NewArchive()
	s := a.FindOrCreateDay(day(2024, 3, 15)).FindOrCreateSession("14:00")

	f1 := s.FindOrCreateFlight(12, 90)
	f2 := s.FindOrCreateFlight(3, 60)
	f3 := s.FindOrCreateFlight(12, 120) // existing, duration must not change

	require.Len(t, s.Flights, 2)
	assert.Equal(t, int64(3), s.Flights[0].Number)
	assert.Equal(t, int64(12), s.Flights[1].Number)

	assert.Same(t, f1, f3)
	assert.Equal(t, int64(90), f1.Length)
	assert.Equal(t, int64(60), f2.Length)
}

func TestInsertVideoAssignsArchiveWideIDs(t *testing.T) {
	a := models.NewArchive()

	f1 := a.FindOrCreateDay(day(2024, 1, 1)).FindOrCreateSession("10:00").FindOrCreateFlight(1, 60)
	f2 := a.FindOrCreateDay(day(2024, 2, 1)).FindOrCreateSession("11:00").FindOrCreateFlight(2, 60)

	v1, ok := a.InsertVideo(f1, models.Video{CameraName: "Door", FileName: "a.mp4"})
	require.True(t, ok)
	v2, ok := a.InsertVideo(f2, models.Video{CameraName: "Door", FileName: "b.mp4"})
	require.True(t, ok)
	v3, ok := a.InsertVideo(f1, models.Video{CameraName: "Side", FileName: "c.mp4"})
	require.True(t, ok)

	assert.Equal(t, int64(1), v1.ID)
	assert.Equal(t, int64(2), v2.ID)
	assert.Equal(t, int64(3), v3.ID)
}

func TestInsertVideoRejectsDuplicateAcrossArchive(t *testing.T) {
	a := models.NewArchive()

	f1 := a.FindOrCreateDay(day(2024, 1, 1)).FindOrCreateSession("10:00").FindOrCreateFlight(1, 60)
	f2 := a.FindOrCreateDay(day(2024, 2, 1)).FindOrCreateSession("11:00").FindOrCreateFlight(2, 60)

	_, ok := a.InsertVideo(f1, models.Video{CameraName: "Door", FileName: "same.mp4"})
	require.True(t, ok)

	// same filename into a different bucket
	_, ok = a.InsertVideo(f2, models.Video{CameraName: "Side", FileName: "same.mp4"})
	assert.False(t, ok)

	total := 0
	for _, d := range a.Days {
		for _, s := range d.Sessions {
			for _, f := range s.Flights {
				total += len(f.Videos)
			}
		}
	}
	assert.Equal(t, 1, total)
}

func TestInsertVideoCameraOrder(t *testing.T) {
	a := models.NewArchive()
	f := a.FindOrCreateDay(day(2024, 1, 1)).FindOrCreateSession("10:00").FindOrCreateFlight(1, 60)

	for i, cam := range []string{"Top", "Handcam", "Door", "GoProX", "Side"} {
		_, ok := a.InsertVideo(f, models.Video{CameraName: cam, FileName: fmt.Sprintf("%d.mp4", i)})
		require.True(t, ok)
	}

	got := make([]string, 0, len(f.Videos))
	for _, v := range f.Videos {
		got = append(got, v.CameraName)
	}

	// known labels by preference, unknown ones last in insertion order
	assert.Equal(t, []string{"Door", "Side", "Top", "Handcam", "GoProX"}, got)
}

func TestTotalDuration(t *testing.T) {
	a := models.NewArchive()

	a.FindOrCreateDay(day(2024, 1, 1)).FindOrCreateSession("10:00").FindOrCreateFlight(1, 60)
	a.FindOrCreateDay(day(2024, 1, 1)).FindOrCreateSession("10:00").FindOrCreateFlight(2, 90)
	a.FindOrCreateDay(day(2024, 2, 1)).FindOrCreateSession("12:30").FindOrCreateFlight(1, 120)

	assert.Equal(t, int64(270), a.TotalDuration())
}

func TestDaysSinceEarliest(t *testing.T) {
	a := models.NewArchive()

	assert.Zero(t, a.DaysSinceEarliest(time.Now()))

	first := day(2024, 1, 1)
	a.FindOrCreateDay(day(2024, 3, 1))
	a.FindOrCreateDay(first)

	now := time.Unix(first, 0).Add(36 * time.Hour)
	assert.InDelta(t, 1.5, a.DaysSinceEarliest(now), 1e-9)
}

func TestFindVideo(t *testing.T) {
	a := models.NewArchive()
	f := a.FindOrCreateDay(day(2024, 3, 15)).FindOrCreateSession("14:00").FindOrCreateFlight(12, 90)

	v, ok := a.InsertVideo(f, models.Video{CameraName: "Door", FileName: "a.mp4", AssetRef: "file-1"})
	require.True(t, ok)

	found := a.FindVideo(day(2024, 3, 15), "14:00", 12, v.ID)
	require.NotNil(t, found)
	assert.Equal(t, "file-1", found.AssetRef)

	assert.Nil(t, a.FindVideo(day(2024, 3, 15), "14:30", 12, v.ID))
	assert.Nil(t, a.FindVideo(day(2024, 3, 15), "14:00", 13, v.ID))
	assert.Nil(t, a.FindVideo(day(2024, 3, 15), "14:00", 12, v.ID+1))
}
