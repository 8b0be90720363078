package menu

import (
	"fmt"
	"strings"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
)

// ArchiveText renders the tree as an indented list, bolding the
// branch the user is currently looking at. Children are expanded
// only along that branch, like the original menu message.
func ArchiveText(a *models.Archive, cur Path) string {
	var lines []string

	for _, d := range a.Days {
		onDay := d.Date == cur.Date && cur.Kind != KindHome
		lines = append(lines, line(1, onDay && cur.Kind == KindDay, FormatDate(d.Date)))
		if !onDay {
			continue
		}
		for _, s := range d.Sessions {
			onSession := onDay && s.TimeSlot == cur.Slot
			lines = append(lines, line(2, onSession && cur.Kind == KindSession, "Session "+s.TimeSlot))
			if !onSession {
				continue
			}
			for _, f := range s.Flights {
				onFlight := onSession && f.Number == cur.Flight
				label := fmt.Sprintf("Flight %d: %d:%02d min", f.Number, f.Length/60, f.Length%60)
				lines = append(lines, line(3, onFlight, label))
				if !onFlight {
					continue
				}
				for _, v := range f.Videos {
					lines = append(lines, line(4, false, v.CameraName))
				}
			}
		}
	}

	if len(lines) == 0 {
		return "No videos archived yet"
	}

	return strings.Join(lines, "\n")
}

func line(depth int, bold bool, text string) string {
	prefix := strings.Repeat("- ", depth)
	if bold {
		return prefix + "*" + text + "*"
	}
	return prefix + text
}

// StartKeyboard is the entry menu.
func StartKeyboard() models.Keyboard {
	return models.Keyboard{
		{
			{Label: "Browse Videos", Data: KindHome},
			{Label: "My Stats", Data: KindStats},
		},
	}
}

// StatsText renders the entertaining-stats message.
func StatsText(st models.Stats) string {
	return strings.Join([]string{
		"Here is some entertaining stats:",
		"You started flying " + FormatDaysCount(int64(st.DaysSinceFirst)) + " ago",
		"You have flown for " + FormatFlightTime(st.FlightSeconds),
	}, "\n")
}

// DaysKeyboard lists all archived days plus a home button.
func DaysKeyboard(a *models.Archive) models.Keyboard {
	kb := models.Keyboard{}
	for _, d := range a.Days {
		kb = append(kb, []models.Button{{Label: FormatDate(d.Date), Data: EncodeDay(d.Date)}})
	}
	kb = append(kb, []models.Button{{Label: "<- Home", Data: KindStart}})
	return kb
}

// SessionsKeyboard lists the sessions of one day.
func SessionsKeyboard(d *models.Day) models.Keyboard {
	kb := models.Keyboard{}
	for _, s := range d.Sessions {
		kb = append(kb, []models.Button{{Label: "Session " + s.TimeSlot, Data: EncodeSession(d.Date, s.TimeSlot)}})
	}
	kb = append(kb, []models.Button{{Label: "<- Back", Data: KindHome}})
	return kb
}

// FlightsKeyboard lists the flights of one session.
func FlightsKeyboard(date int64, s *models.Session) models.Keyboard {
	kb := models.Keyboard{}
	for _, f := range s.Flights {
		kb = append(kb, []models.Button{{
			Label: fmt.Sprintf("Flight %d", f.Number),
			Data:  EncodeFlight(date, s.TimeSlot, f.Number),
		}})
	}
	kb = append(kb, []models.Button{{Label: "<- Back", Data: EncodeDay(date)}})
	return kb
}

// VideosKeyboard lists the camera clips of one flight.
func VideosKeyboard(date int64, slot string, f *models.Flight) models.Keyboard {
	kb := models.Keyboard{}
	for _, v := range f.Videos {
		kb = append(kb, []models.Button{{
			Label: v.CameraName,
			Data:  EncodeVideo(date, slot, f.Number, v.ID),
		}})
	}
	kb = append(kb, []models.Button{{Label: "<- Back", Data: EncodeSession(date, slot)}})
	return kb
}

// ConfirmKeyboard is the accept/reject challenge sent to the
// claimed user's own chat.
func ConfirmKeyboard() models.Keyboard {
	return models.Keyboard{
		{
			{Label: "❌", Data: EncodeAuth(false)},
			{Label: "✅", Data: EncodeAuth(true)},
		},
	}
}

// CloseKeyboard is a single button deleting the message it hangs on.
func CloseKeyboard(chat int64, message int64) models.Keyboard {
	return models.Keyboard{
		{
			{Label: "Close", Data: EncodeDelete(chat, message)},
		},
	}
}
