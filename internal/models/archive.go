package models

import (
	"sort"
	"time"
)

// cameraOrder is the preferred ordering of clips within one flight.
// Labels not listed sort after all listed ones, keeping their
// insertion order.
var cameraOrder = map[string]int{
	"Door": 0,
	"Side": 1,
	"Top":  2,
	"POV":  3,
}

const secondsPerDay = 86400

// FindOrCreateDay returns the day with the given date,
// creating and inserting it at its sorted position if absent.
// The day list stays strictly ascending by date.
func (a *Archive) FindOrCreateDay(date int64) *Day {
	for _, d := range a.Days {
		if d.Date == date {
			return d
		}
	}

	d := &Day{Date: date, Sessions: []*Session{}}

	i := sort.Search(len(a.Days), func(i int) bool {
		return a.Days[i].Date > date
	})
	a.Days = append(a.Days, nil)
	copy(a.Days[i+1:], a.Days[i:])
	a.Days[i] = d

	return d
}

// FindOrCreateSession returns the session with the given time slot,
// creating and inserting it at its sorted position if absent.
// Sessions stay strictly ascending by time of day.
func (d *Day) FindOrCreateSession(slot string) *Session {
	for _, s := range d.Sessions {
		if s.TimeSlot == slot {
			return s
		}
	}

	s := &Session{TimeSlot: slot, Flights: []*Flight{}}

	key := slotKey(slot)
	i := sort.Search(len(d.Sessions), func(i int) bool {
		return slotKey(d.Sessions[i].TimeSlot) > key
	})
	d.Sessions = append(d.Sessions, nil)
	copy(d.Sessions[i+1:], d.Sessions[i:])
	d.Sessions[i] = s

	return s
}

// FindOrCreateFlight returns the flight with the given number,
// creating it with the given duration if absent. Duration is set
// once at creation and never recomputed: all camera recordings of
// one flight share it.
func (s *Session) FindOrCreateFlight(number int64, duration int64) *Flight {
	for _, f := range s.Flights {
		if f.Number == number {
			return f
		}
	}

	f := &Flight{Number: number, Length: duration, Videos: []*Video{}}

	i := sort.Search(len(s.Flights), func(i int) bool {
		return s.Flights[i].Number > number
	})
	s.Flights = append(s.Flights, nil)
	copy(s.Flights[i+1:], s.Flights[i:])
	s.Flights[i] = f

	return f
}

// InsertVideo appends v to the flight unless a video with the same
// source filename exists anywhere in the archive. The id is assigned
// as the archive-wide maximum plus one, so an archive imported from
// an external dump stays consistent without migration. On success the
// flight's videos are reordered by camera preference.
func (a *Archive) InsertVideo(f *Flight, v Video) (Video, bool) {
	if a.containsFilename(v.FileName) {
		return Video{}, false
	}

	v.ID = a.maxVideoID() + 1
	f.Videos = append(f.Videos, &v)

	sort.SliceStable(f.Videos, func(i, j int) bool {
		return cameraRank(f.Videos[i].CameraName) < cameraRank(f.Videos[j].CameraName)
	})

	return v, true
}

// TotalDuration sums flight lengths over the whole archive, in seconds.
func (a *Archive) TotalDuration() int64 {
	var total int64
	for _, d := range a.Days {
		for _, s := range d.Sessions {
			for _, f := range s.Flights {
				total += f.Length
			}
		}
	}
	return total
}

// DaysSinceEarliest returns fractional days between the earliest
// archived day and now, 0 for an empty archive.
func (a *Archive) DaysSinceEarliest(now time.Time) float64 {
	if len(a.Days) == 0 {
		return 0
	}
	return float64(now.Unix()-a.Days[0].Date) / secondsPerDay
}

// FindVideo resolves a full tree path, nil when any level is missing.
func (a *Archive) FindVideo(date int64, slot string, flight int64, videoID int64) *Video {
	for _, d := range a.Days {
		if d.Date != date {
			continue
		}
		for _, s := range d.Sessions {
			if s.TimeSlot != slot {
				continue
			}
			for _, f := range s.Flights {
				if f.Number != flight {
					continue
				}
				for _, v := range f.Videos {
					if v.ID == videoID {
						return v
					}
				}
			}
		}
	}
	return nil
}

// Day returns the day with the given date, nil if absent.
func (a *Archive) Day(date int64) *Day {
	for _, d := range a.Days {
		if d.Date == date {
			return d
		}
	}
	return nil
}

// Session returns the session with the given time slot, nil if absent.
func (d *Day) Session(slot string) *Session {
	for _, s := range d.Sessions {
		if s.TimeSlot == slot {
			return s
		}
	}
	return nil
}

// Flight returns the flight with the given number, nil if absent.
func (s *Session) Flight(number int64) *Flight {
	for _, f := range s.Flights {
		if f.Number == number {
			return f
		}
	}
	return nil
}

func (a *Archive) containsFilename(name string) bool {
	for _, d := range a.Days {
		for _, s := range d.Sessions {
			for _, f := range s.Flights {
				for _, v := range f.Videos {
					if v.FileName == name {
						return true
					}
				}
			}
		}
	}
	return false
}

func (a *Archive) maxVideoID() int64 {
	var max int64
	for _, d := range a.Days {
		for _, s := range d.Sessions {
			for _, f := range s.Flights {
				for _, v := range f.Videos {
					if v.ID > max {
						max = v.ID
					}
				}
			}
		}
	}
	return max
}

func cameraRank(label string) int {
	if r, ok := cameraOrder[label]; ok {
		return r
	}
	return len(cameraOrder)
}

// slotKey orders "HH:MM" slots by time of day. Slots produced by the
// filename parser are always well-formed; anything else sorts last.
func slotKey(slot string) int {
	min, err := SlotMinutes(slot)
	if err != nil {
		return 24 * 60
	}
	return min
}
