package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Archive is the full video tree of one registered user.
// It is the unit of persistence: the whole tree is serialized
// into a single document on every save.
type Archive struct {
	Days []*Day `json:"days"`
}

// Day groups sessions flown on one calendar day.
// Date is epoch seconds at UTC midnight.
type Day struct {
	Date     int64      `json:"date"`
	Sessions []*Session `json:"sessions"`
}

// Session is a 30-minute bucket of flights flown in one sitting.
// TimeSlot is "HH:MM" with minutes floored to 0 or 30.
type Session struct {
	TimeSlot string    `json:"time_slot"`
	Flights  []*Flight `json:"flights"`
}

type Flight struct {
	Number int64    `json:"flight_number"`
	Length int64    `json:"length"`
	Videos []*Video `json:"videos"`
}

type Video struct {
	ID         int64  `json:"video_id"`
	CameraName string `json:"camera_name"`
	FileName   string `json:"file_name"`
	AssetRef   string `json:"asset_reference"`
}

// Upload is parsed metadata of an incoming clip,
// everything needed to place it into an archive.
type Upload struct {
	FileName string
	AssetRef string
	Duration int64
}

type Stats struct {
	FlightSeconds  int64   `json:"flightSeconds"`
	DaysSinceFirst float64 `json:"daysSinceFirst"`
}

// DirectoryEntry maps a known username to the chat
// holding that user's archive.
type DirectoryEntry struct {
	Username string `json:"username"`
	Location int64  `json:"location"`
}

type AuthStatus int

const (
	AuthIdle AuthStatus = iota
	AuthPendingConfirmation
	AuthActive
)

func (s AuthStatus) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthPendingConfirmation:
		return "pending-confirmation"
	case AuthActive:
		return "active"
	}
	return "unknown"
}

// AuthSession is the delegated-upload session of the privileged chat.
// ExpiresAt is meaningful only while Status == AuthActive.
type AuthSession struct {
	Username  string     `json:"username"`
	Location  int64      `json:"location"`
	ExpiresAt int64      `json:"expiresAt"`
	Status    AuthStatus `json:"-"`
}

// Button and Keyboard are transport-agnostic inline buttons,
// translated to the bot API by the controller.
type Button struct {
	Label string
	Data  string
}

type Keyboard [][]Button

// NewArchive returns an empty archive that serializes to {"days":[]}.
func NewArchive() *Archive {
	return &Archive{Days: []*Day{}}
}

// SlotMinutes converts a "HH:MM" time slot to minutes since midnight.
func SlotMinutes(slot string) (int, error) {
	hh, mm, ok := strings.Cut(slot, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	return h*60 + m, nil
}

// MinutesSlot is the inverse of SlotMinutes.
func MinutesSlot(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
