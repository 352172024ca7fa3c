package types

import (
	"time"
)

type Room struct {
	Id        int       `json:"id"`
	Theme     string    `json:"theme"`
	Passcode  string    `json:"passcode"`
	UserCount int       `json:"user_count"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	RoomPasscode string    `json:"room_passcode,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
