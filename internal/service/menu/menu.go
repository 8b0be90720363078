package menu

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
)

// Callback path kinds. The wire form is colon-separated:
// "flight:<date>:<slotMinutes>:<number>". Time slots travel as
// minutes since midnight so the slot's own colon never collides
// with the separator.
const (
	KindStart      = "start"
	KindStats      = "stats"
	KindHome       = "home"
	KindDay        = "day"
	KindSession    = "session"
	KindFlight     = "flight"
	KindVideo      = "video"
	KindAuth       = "auth"
	KindCancelAuth = "cancel_auth"
	KindEndSession = "end_session"
	KindDelete     = "delete"
)

// Path is a decoded position in the archive tree (or a control action).
type Path struct {
	Kind   string
	Date   int64
	Slot   string
	Flight int64
	Video  int64
	Args   []int64
}

func EncodeDay(date int64) string {
	return fmt.Sprintf("%s:%d", KindDay, date)
}

func EncodeSession(date int64, slot string) string {
	return fmt.Sprintf("%s:%d:%d", KindSession, date, slotMin(slot))
}

func EncodeFlight(date int64, slot string, number int64) string {
	return fmt.Sprintf("%s:%d:%d:%d", KindFlight, date, slotMin(slot), number)
}

func EncodeVideo(date int64, slot string, number int64, videoID int64) string {
	return fmt.Sprintf("%s:%d:%d:%d:%d", KindVideo, date, slotMin(slot), number, videoID)
}

func EncodeAuth(accept bool) string {
	if accept {
		return KindAuth + ":1"
	}
	return KindAuth + ":0"
}

func EncodeCancelAuth(chat int64, message int64) string {
	return fmt.Sprintf("%s:%d:%d", KindCancelAuth, chat, message)
}

func EncodeDelete(chat int64, message int64) string {
	return fmt.Sprintf("%s:%d:%d", KindDelete, chat, message)
}

// Decode parses a callback payload back into a Path.
func Decode(data string) (Path, error) {
	parts := strings.Split(data, ":")
	kind := parts[0]
	args := make([]int64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return Path{}, fmt.Errorf("menu.Decode: invalid payload %q", data)
		}
		args = append(args, n)
	}

	path := Path{Kind: kind, Args: args}

	switch kind {
	case KindDay:
		if len(args) < 1 {
			return Path{}, fmt.Errorf("menu.Decode: invalid payload %q", data)
		}
		path.Date = args[0]
	case KindSession:
		if len(args) < 2 {
			return Path{}, fmt.Errorf("menu.Decode: invalid payload %q", data)
		}
		path.Date, path.Slot = args[0], models.MinutesSlot(int(args[1]))
	case KindFlight:
		if len(args) < 3 {
			return Path{}, fmt.Errorf("menu.Decode: invalid payload %q", data)
		}
		path.Date, path.Slot, path.Flight = args[0], models.MinutesSlot(int(args[1])), args[2]
	case KindVideo:
		if len(args) < 4 {
			return Path{}, fmt.Errorf("menu.Decode: invalid payload %q", data)
		}
		path.Date, path.Slot, path.Flight, path.Video = args[0], models.MinutesSlot(int(args[1])), args[2], args[3]
	}

	return path, nil
}

func slotMin(slot string) int {
	min, err := models.SlotMinutes(slot)
	if err != nil {
		return 0
	}
	return min
}

// FormatDate renders an epoch day as "2006.01.02".
func FormatDate(date int64) string {
	return time.Unix(date, 0).UTC().Format("2006.01.02")
}

// FormatFlightTime renders total flight seconds the way the stats
// message shows them.
func FormatFlightTime(seconds int64) string {
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour : %d min : %d sec", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%d min : %d sec", minutes, secs)
	default:
		return fmt.Sprintf("%d sec", secs)
	}
}

// FormatDaysCount renders a day count as years/months/days.
func FormatDaysCount(days int64) string {
	years := days / 365
	months := days % 365 / 30
	rest := days % 365 % 30

	switch {
	case years > 0:
		return fmt.Sprintf("%d year(s) : %d month(s) : %d day(s)", years, months, rest)
	case months > 0:
		return fmt.Sprintf("%d month(s) : %d day(s)", months, rest)
	default:
		return fmt.Sprintf("%d day(s)", rest)
	}
}
