package server

import (
	"log"
	"sync"
)

type session struct {
	client   *Client
	roomId   int
	passcode string
	bound    bool
}

// SessionRegistry maps connection ids to clients and, once a user is an
// occupant of a room, to that room's context. It is the authority for
// realtime routing only; the database owns room membership counts.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	// rooms indexes bound sessions by passcode for room-scoped fan-out
	rooms map[string]map[string]*session
	log   *log.Logger
}

func NewSessionRegistry(logger *log.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*session),
		rooms:    make(map[string]map[string]*session),
		log:      logger,
	}
}

func (sr *SessionRegistry) Register(c *Client) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.sessions[c.connId] = &session{client: c}
}

// Bind associates a registered connection with a room. It reports whether
// the connection was known.
func (sr *SessionRegistry) Bind(connId string, roomId int, passcode string) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sess, ok := sr.sessions[connId]
	if !ok {
		return false
	}

	if sess.bound {
		sr.unbindLocked(connId, sess)
	}

	sess.roomId = roomId
	sess.passcode = passcode
	sess.bound = true

	if sr.rooms[passcode] == nil {
		sr.rooms[passcode] = make(map[string]*session)
	}
	sr.rooms[passcode][connId] = sess

	return true
}

// Remove deletes the connection's session and returns the room context it
// was bound to, if any.
func (sr *SessionRegistry) Remove(connId string) (roomId int, passcode string, bound bool) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sess, ok := sr.sessions[connId]
	if !ok {
		return 0, "", false
	}

	if sess.bound {
		sr.unbindLocked(connId, sess)
	}
	delete(sr.sessions, connId)

	return sess.roomId, sess.passcode, sess.bound
}

func (sr *SessionRegistry) unbindLocked(connId string, sess *session) {
	if conns, ok := sr.rooms[sess.passcode]; ok {
		delete(conns, connId)
		if len(conns) == 0 {
			delete(sr.rooms, sess.passcode)
		}
	}
}

func (sr *SessionRegistry) Get(connId string) (*Client, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	sess, ok := sr.sessions[connId]
	if !ok {
		return nil, false
	}
	return sess.client, true
}

// RoomOf returns the passcode of the room the connection is bound to.
func (sr *SessionRegistry) RoomOf(connId string) (string, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	sess, ok := sr.sessions[connId]
	if !ok || !sess.bound {
		return "", false
	}
	return sess.passcode, true
}

// IsOccupant reports whether the connection is bound to the room with the
// given passcode.
func (sr *SessionRegistry) IsOccupant(connId, passcode string) bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	conns, ok := sr.rooms[passcode]
	if !ok {
		return false
	}

	_, ok = conns[connId]
	return ok
}

// Occupants returns the clients currently bound to the room.
func (sr *SessionRegistry) Occupants(passcode string) []*Client {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	conns := sr.rooms[passcode]
	clients := make([]*Client, 0, len(conns))
	for _, sess := range conns {
		clients = append(clients, sess.client)
	}
	return clients
}

// Clients returns every registered client, bound or not.
func (sr *SessionRegistry) Clients() []*Client {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	clients := make([]*Client, 0, len(sr.sessions))
	for _, sess := range sr.sessions {
		clients = append(clients, sess.client)
	}
	return clients
}

func (sr *SessionRegistry) Len() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return len(sr.sessions)
}
