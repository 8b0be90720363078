package menu_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/service/menu"
)

var date = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Unix()

func TestEncodeDecode(t *testing.T) {
	testCases := []struct {
		desc   string
		data   string
		expect menu.Path
	}{
		{
			desc:   "day",
			data:   menu.EncodeDay(date),
			expect: menu.Path{Kind: menu.KindDay, Date: date, Args: []int64{date}},
		},
		{
			desc:   "session",
			data:   menu.EncodeSession(date, "14:30"),
			expect: menu.Path{Kind: menu.KindSession, Date: date, Slot: "14:30", Args: []int64{date, 870}},
		},
		{
			desc:   "flight",
			data:   menu.EncodeFlight(date, "09:00", 12),
			expect: menu.Path{Kind: menu.KindFlight, Date: date, Slot: "09:00", Flight: 12, Args: []int64{date, 540, 12}},
		},
		{
			desc:   "video",
			data:   menu.EncodeVideo(date, "09:30", 12, 3),
			expect: menu.Path{Kind: menu.KindVideo, Date: date, Slot: "09:30", Flight: 12, Video: 3, Args: []int64{date, 570, 12, 3}},
		},
		{
			desc:   "auth accept",
			data:   menu.EncodeAuth(true),
			expect: menu.Path{Kind: menu.KindAuth, Args: []int64{1}},
		},
		{
			desc:   "auth reject",
			data:   menu.EncodeAuth(false),
			expect: menu.Path{Kind: menu.KindAuth, Args: []int64{0}},
		},
		{
			desc:   "cancel auth",
			data:   menu.EncodeCancelAuth(932162499, 17),
			expect: menu.Path{Kind: menu.KindCancelAuth, Args: []int64{932162499, 17}},
		},
		{
			desc:   "delete",
			data:   menu.EncodeDelete(932162499, 17),
			expect: menu.Path{Kind: menu.KindDelete, Args: []int64{932162499, 17}},
		},
		{
			desc:   "bare kind",
			data:   menu.KindStart,
			expect: menu.Path{Kind: menu.KindStart, Args: []int64{}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := menu.Decode(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	testCases := []struct {
		desc string
		data string
	}{
		{desc: "non-numeric argument", data: "day:tomorrow"},
		{desc: "day without date", data: "day"},
		{desc: "session missing slot", data: "session:1710460800"},
		{desc: "video missing id", data: "video:1710460800:840:12"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := menu.Decode(tc.data)
			require.Error(t, err)
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024.03.15", menu.FormatDate(date))
}

func TestFormatFlightTime(t *testing.T) {
	testCases := []struct {
		desc    string
		seconds int64
		expect  string
	}{
		{desc: "seconds only", seconds: 45, expect: "45 sec"},
		{desc: "minutes", seconds: 330, expect: "5 min : 30 sec"},
		{desc: "hours", seconds: 3725, expect: "1 hour : 2 min : 5 sec"},
		{desc: "zero", seconds: 0, expect: "0 sec"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expect, menu.FormatFlightTime(tc.seconds))
		})
	}
}

func TestFormatDaysCount(t *testing.T) {
	testCases := []struct {
		desc   string
		days   int64
		expect string
	}{
		{desc: "days only", days: 12, expect: "12 day(s)"},
		{desc: "months", days: 45, expect: "1 month(s) : 15 day(s)"},
		{desc: "years", days: 400, expect: "1 year(s) : 1 month(s) : 5 day(s)"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expect, menu.FormatDaysCount(tc.days))
		})
	}
}

func testArchive(t *testing.T) *models.Archive {
	t.Helper()

	a := models.NewArchive()
	f := a.FindOrCreateDay(date).FindOrCreateSession("14:00").FindOrCreateFlight(12, 90)
	_, ok := a.InsertVideo(f, models.Video{CameraName: "Door", FileName: "a.mp4", AssetRef: "r1"})
	require.True(t, ok)
	_, ok = a.InsertVideo(f, models.Video{CameraName: "Side", FileName: "b.mp4", AssetRef: "r2"})
	require.True(t, ok)
	a.FindOrCreateDay(date).FindOrCreateSession("16:30")
	a.FindOrCreateDay(date + 86400)

	return a
}

func TestArchiveTextEmpty(t *testing.T) {
	assert.Equal(t, "No videos archived yet", menu.ArchiveText(models.NewArchive(), menu.Path{Kind: menu.KindHome}))
}

func TestArchiveTextExpandsCurrentBranchOnly(t *testing.T) {
	a := testArchive(t)

	got := menu.ArchiveText(a, menu.Path{
		Kind:   menu.KindFlight,
		Date:   date,
		Slot:   "14:00",
		Flight: 12,
	})

	expect := []string{
		"- 2024.03.15",
		"- - Session 14:00",
		"- - - *Flight 12: 1:30 min*",
		"- - - - Door",
		"- - - - Side",
		"- - Session 16:30",
		"- 2024.03.16",
	}
	assert.Equal(t, expect, splitLines(got))
}

func TestArchiveTextBoldsSelectedDay(t *testing.T) {
	a := testArchive(t)

	got := menu.ArchiveText(a, menu.Path{Kind: menu.KindDay, Date: date})

	expect := []string{
		"- *2024.03.15*",
		"- - Session 14:00",
		"- - Session 16:30",
		"- 2024.03.16",
	}
	assert.Equal(t, expect, splitLines(got))
}

func TestArchiveTextHomeCollapsesAll(t *testing.T) {
	a := testArchive(t)

	got := menu.ArchiveText(a, menu.Path{Kind: menu.KindHome})

	expect := []string{
		"- 2024.03.15",
		"- 2024.03.16",
	}
	assert.Equal(t, expect, splitLines(got))
}

func TestKeyboards(t *testing.T) {
	a := testArchive(t)

	days := menu.DaysKeyboard(a)
	require.Len(t, days, 3)
	assert.Equal(t, "2024.03.15", days[0][0].Label)
	assert.Equal(t, menu.EncodeDay(date), days[0][0].Data)
	assert.Equal(t, menu.KindStart, days[2][0].Data)

	sessions := menu.SessionsKeyboard(a.Day(date))
	require.Len(t, sessions, 3)
	assert.Equal(t, menu.EncodeSession(date, "14:00"), sessions[0][0].Data)

	flights := menu.FlightsKeyboard(date, a.Day(date).Session("14:00"))
	require.Len(t, flights, 2)
	assert.Equal(t, menu.EncodeFlight(date, "14:00", 12), flights[0][0].Data)

	videos := menu.VideosKeyboard(date, "14:00", a.Day(date).Session("14:00").Flight(12))
	require.Len(t, videos, 3)
	assert.Equal(t, "Door", videos[0][0].Label)
	assert.Equal(t, menu.EncodeVideo(date, "14:00", 12, 1), videos[0][0].Data)
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
