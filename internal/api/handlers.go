package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/stufocus/go-studyroom/internal/database"
	"github.com/stufocus/go-studyroom/internal/server"
	"github.com/stufocus/go-studyroom/internal/stats"
	"github.com/stufocus/go-studyroom/internal/types"
)

type CreateRoomRequest struct {
	Username string `json:"username"`
	Theme    string `json:"theme"`
}

func (s *StudyRoomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *StudyRoomApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var createRoomReq CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&createRoomReq); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if createRoomReq.Username == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	code, err := s.passcodes.Generate()
	if err != nil {
		s.log.Println("generate passcode:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		Theme:    createRoomReq.Theme,
		Passcode: code,
		Owner:    createRoomReq.Username,
	})
	if err != nil {
		s.log.Println("create room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.ActiveRooms)

	s.writeJson(w, http.StatusCreated, types.Room{
		Id:        newRoom.Id,
		Theme:     newRoom.Theme,
		Passcode:  newRoom.Passcode,
		UserCount: newRoom.UserCount,
		CreatedAt: newRoom.CreatedAt,
		UpdatedAt: newRoom.UpdatedAt,
	})
}

func (s *StudyRoomApp) getRoom(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("passcode")
	if code == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByPasscode(code)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Room{
		Id:        room.Id,
		Theme:     room.Theme,
		Passcode:  room.Passcode,
		UserCount: room.UserCount,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	})
}

func (s *StudyRoomApp) getRoomUsers(w http.ResponseWriter, r *http.Request) {
	roomId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetRoomById(roomId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users, err := s.db.GetUsersByRoom(roomId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.User, 0, len(users))
	for _, u := range users {
		resp = append(resp, types.User{
			Id:           u.Id,
			Username:     u.Username,
			RoomPasscode: u.RoomPasscode.String,
			CreatedAt:    u.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *StudyRoomApp) serveWs(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	code := r.URL.Query().Get("passcode")

	connId, err := s.generateConnId()
	if err != nil {
		s.log.Println("generate connection id:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(connId, username, conn, s.ss, s.log)

	// a connection from a user the directory already binds to this room
	// enters as an occupant; anyone else starts unbound and must request
	// to join
	if code != "" && username != "" {
		if room, err := s.db.GetRoomByPasscode(code); err == nil {
			if user, err := s.db.GetUserByName(username); err == nil &&
				user.RoomPasscode.Valid && user.RoomPasscode.String == room.Passcode {
				if err := s.db.UpdateUserSession(user.Id, connId); err != nil {
					s.log.Println("update user session:", err)
				}
				client.BindRoom(room.Id, room.Passcode)
			}
		}
	}

	s.ss.RegisterClient(client)
	go client.Write()
	go client.Read()
}
