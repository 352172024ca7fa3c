package database

import (
	"database/sql"
	"time"
)

type Room struct {
	Id        int
	Theme     string
	Passcode  string
	UserCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	Id           int
	Username     string
	RoomPasscode sql.NullString
	SessionId    sql.NullString
	CreatedAt    time.Time
}

type CreateRoomParams struct {
	Theme    string
	Passcode string
	Owner    string
}

type CreateUserParams struct {
	Username     string
	RoomPasscode string
	SessionId    string
}
