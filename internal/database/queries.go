package database

import (
	"time"
)

func (db *PgStudyRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (theme, passcode, user_count, created_at, updated_at) "+
			"VALUES ($1, $2, 1, $3, $4) RETURNING id, theme, passcode, user_count, created_at, updated_at",
		params.Theme,
		params.Passcode,
		time.Now().UTC(),
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.Theme,
		&room.Passcode,
		&room.UserCount,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO users (username, room_passcode, created_at) VALUES ($1, $2, $3)",
		params.Owner,
		room.Passcode,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgStudyRoomRepository) GetRoomByPasscode(passcode string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, theme, passcode, user_count, created_at, updated_at FROM rooms "+
			"WHERE passcode = $1 LIMIT 1",
		passcode,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.Theme,
		&room.Passcode,
		&room.UserCount,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgStudyRoomRepository) GetRoomById(roomId int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, theme, passcode, user_count, created_at, updated_at FROM rooms "+
			"WHERE id = $1 LIMIT 1",
		roomId,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.Theme,
		&room.Passcode,
		&room.UserCount,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgStudyRoomRepository) PasscodeExists(passcode string) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM rooms WHERE passcode = $1)",
		passcode,
	)

	var exists bool
	err := row.Scan(&exists)

	return exists, err
}

// AddUserToRoom inserts a user bound to the room's passcode and increments
// the room's occupant count in a single transaction.
func (db *PgStudyRoomRepository) AddUserToRoom(params CreateUserParams) (User, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return User{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var roomId int
	err = tx.QueryRow(
		"UPDATE rooms SET user_count = user_count + 1, updated_at = $2 "+
			"WHERE passcode = $1 RETURNING id",
		params.RoomPasscode,
		time.Now().UTC(),
	).Scan(&roomId)
	if err != nil {
		return User{}, err
	}

	res := tx.QueryRow(
		"INSERT INTO users (username, room_passcode, session_id, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, username, room_passcode, session_id, created_at",
		params.Username,
		params.RoomPasscode,
		params.SessionId,
		time.Now().UTC(),
	)

	var user User
	err = res.Scan(
		&user.Id,
		&user.Username,
		&user.RoomPasscode,
		&user.SessionId,
		&user.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}

	if err = tx.Commit(); err != nil {
		return User{}, err
	}

	return user, nil
}

// LeaveRoom decrements the room's occupant count and deletes the room once
// the count reaches zero. User rows cascade with the room. Returns whether
// the room was deleted.
func (db *PgStudyRoomRepository) LeaveRoom(roomId int) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var userCount int
	err = tx.QueryRow(
		"UPDATE rooms SET user_count = user_count - 1, updated_at = $2 "+
			"WHERE id = $1 RETURNING user_count",
		roomId,
		time.Now().UTC(),
	).Scan(&userCount)
	if err != nil {
		return false, err
	}

	var deleted bool
	if userCount <= 0 {
		if _, err = tx.Exec("DELETE FROM rooms WHERE id = $1", roomId); err != nil {
			return false, err
		}
		deleted = true
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}

	return deleted, nil
}

func (db *PgStudyRoomRepository) GetUsersByRoom(roomId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.username, u.room_passcode, u.session_id, u.created_at "+
			"FROM users u JOIN rooms r ON u.room_passcode = r.passcode WHERE r.id = $1",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users = make([]User, 0)
	for rows.Next() {
		var user User
		if err = rows.Scan(&user.Id, &user.Username, &user.RoomPasscode, &user.SessionId, &user.CreatedAt); err != nil {
			break
		}

		users = append(users, user)
	}

	return users, err
}

func (db *PgStudyRoomRepository) GetUserByName(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, room_passcode, session_id, created_at FROM users "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.RoomPasscode,
		&user.SessionId,
		&user.CreatedAt,
	)

	return user, err
}

func (db *PgStudyRoomRepository) UpdateUserSession(userId int, sessionId string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET session_id = $2 WHERE id = $1",
		userId,
		sessionId,
	)

	return err
}
