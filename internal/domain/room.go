package domain

import (
	"strconv"
	"time"
)

// Room represents a single chat room as returned by the remote API.
type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Activity holds per-day message counts accumulated while rendering,
	// keyed by year and then by "month/day". Not part of the wire format.
	Activity map[int]map[string]int `json:"-"`
}

// RoomList is the payload of rooms.json.
type RoomList struct {
	Rooms []*Room `json:"rooms"`
}

// RecordActivity bumps the room's activity table for one rendered day.
func (r *Room) RecordActivity(year, month, day, messages int) {
	if r.Activity == nil {
		r.Activity = make(map[int]map[string]int)
	}
	if r.Activity[year] == nil {
		r.Activity[year] = make(map[string]int)
	}
	r.Activity[year][monthDayKey(month, day)] = messages
}

func monthDayKey(month, day int) string {
	return strconv.Itoa(month) + "/" + strconv.Itoa(day)
}
