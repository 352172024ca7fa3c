package database

import (
	"database/sql"
)

type PgStudyRoomRepository struct {
	conn *sql.DB
}

func NewPgStudyRoomRepository(dsn string) (*PgStudyRoomRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgStudyRoomRepository{conn: db}, nil
}

func (db *PgStudyRoomRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
