package filename

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedFilename is returned for names that do not follow the
// tunnel camera convention. The wrapping error carries the original name.
var ErrMalformedFilename = errors.New("malformed filename")

// Meta is everything a filename tells about a clip.
type Meta struct {
	// Date is epoch seconds at UTC midnight of the recording day.
	Date int64
	// TimeSlot is "HH:MM" with minutes floored to a 30-minute bucket.
	TimeSlot string
	Flight   int64
	Camera   string
}

const minTokens = 9

// Parse extracts clip metadata from a camera filename of the form
//
//	<junk>_<junk>_<camera>_<flight>_<YYYY>_<MM>_<DD>_<HH>_<MM>[...]
//
// with "-" treated as "_". The file extension is ignored.
func Parse(name string) (Meta, error) {
	const op = "filename.Parse"

	normalized := strings.ReplaceAll(name, "-", "_")
	normalized = strings.TrimSuffix(normalized, filepath.Ext(normalized))

	tokens := strings.Split(normalized, "_")
	if len(tokens) < minTokens {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}

	flight, err := strconv.ParseInt(tokens[3], 10, 64)
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}

	year, err := strconv.Atoi(tokens[4])
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}
	month, err := strconv.Atoi(tokens[5])
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}
	day, err := strconv.Atoi(tokens[6])
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}

	// time.Date normalizes impossible dates (Feb 31 becomes Mar 2),
	// so reject anything that does not round-trip.
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}

	hour, err := strconv.Atoi(tokens[7])
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}
	minute, err := strconv.Atoi(tokens[8])
	if err != nil {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Meta{}, fmt.Errorf("%s: %q: %w", op, name, ErrMalformedFilename)
	}

	return Meta{
		Date:     date.Unix(),
		TimeSlot: fmt.Sprintf("%02d:%02d", hour, minute/30*30),
		Flight:   flight,
		Camera:   tokens[2],
	}, nil
}
