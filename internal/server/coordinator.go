package server

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stufocus/go-studyroom/internal/database"
	"github.com/stufocus/go-studyroom/internal/stats"
)

// pendingRequestTTL bounds how long a join request may sit unresolved before
// the sweep drops it and clears occupant prompts.
const pendingRequestTTL = 2 * time.Minute

type pendingRequest struct {
	username  string
	passcode  string
	connId    string
	createdAt time.Time
}

// Coordinator drives the join-request state machine. A pending request is
// keyed by the requester's connection id and resolved at most once: the
// first accept or decline wins, a re-join before resolution replaces the
// pending entry. All methods are called from the study server's run loop.
type Coordinator struct {
	db       database.StudyRoomRepository
	sessions *SessionRegistry
	stats    stats.StatsProvider
	log      *log.Logger
	pending  map[string]*pendingRequest
	// now is overridable in tests
	now func() time.Time
}

func NewCoordinator(db database.StudyRoomRepository, sessions *SessionRegistry, sp stats.StatsProvider, logger *log.Logger) *Coordinator {
	return &Coordinator{
		db:       db,
		sessions: sessions,
		stats:    sp,
		log:      logger,
		pending:  make(map[string]*pendingRequest),
		now:      time.Now,
	}
}

// RequestJoin handles a candidate's join event: it verifies the room exists,
// records the pending request, acknowledges the requester and notifies the
// room's occupants.
func (co *Coordinator) RequestJoin(msg *ClientMessage) {
	c := msg.client
	join := msg.Join

	if _, err := co.db.GetRoomByPasscode(join.Passcode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			co.log.Printf("no room found with passcode %q", join.Passcode)
			c.queueMessage(ErrRoomNotFound(msg.Id, join.Passcode))
			return
		}

		co.log.Println("GetRoomByPasscode:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if _, ok := co.pending[c.connId]; !ok {
		co.stats.Incr(stats.PendingRequests)
	}

	// a repeated join before resolution replaces the pending entry
	co.pending[c.connId] = &pendingRequest{
		username:  join.Username,
		passcode:  join.Passcode,
		connId:    c.connId,
		createdAt: co.now(),
	}

	c.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{Id: msg.Id, Timestamp: Now()},
		RequestSent: &RequestSent{
			Message:      "your request has been sent, please wait for confirmation",
			ConnectionId: c.connId,
		},
	})

	co.notifyOccupants(join.Passcode, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		NewRequest: &NewRequest{
			Message:      fmt.Sprintf("%s has sent a request to join this room", join.Username),
			Username:     join.Username,
			Passcode:     join.Passcode,
			ConnectionId: c.connId,
		},
	})
}

// Respond handles an occupant's accept or decline of a pending request. Only
// a connection bound to the target room may respond.
func (co *Coordinator) Respond(msg *ClientMessage) {
	responder := msg.client
	resp := msg.Response

	if !co.sessions.IsOccupant(responder.connId, resp.Passcode) {
		co.log.Printf("connection %q is not an occupant of room %q", responder.connId, resp.Passcode)
		responder.queueMessage(ErrForbidden(msg.Id))
		return
	}

	p, ok := co.pending[resp.ConnectionId]
	if !ok || p.passcode != resp.Passcode {
		responder.queueMessage(ErrRequestNotFound(msg.Id))
		return
	}

	requester, connected := co.sessions.Get(resp.ConnectionId)

	room, err := co.db.GetRoomByPasscode(resp.Passcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			co.resolve(resp.ConnectionId)
			if connected {
				requester.queueMessage(ErrRoomNotFound(0, resp.Passcode))
			}
			return
		}

		co.log.Println("GetRoomByPasscode:", err)
		responder.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if !resp.Accepted {
		co.resolve(resp.ConnectionId)
		co.stats.Incr(stats.DeclinedJoins)
		responder.queueMessage(NoErrOK(msg.Id))

		if !connected {
			co.log.Printf("requester %q disconnected, dropping declined result", resp.ConnectionId)
			return
		}

		requester.queueMessage(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			RequestResult: &RequestResult{
				Passcode: resp.Passcode,
				Message:  "request declined",
				Accepted: false,
			},
		})
		return
	}

	// the accept mutation commits before any notification goes out
	if _, err := co.db.AddUserToRoom(database.CreateUserParams{
		Username:     p.username,
		RoomPasscode: room.Passcode,
		SessionId:    p.connId,
	}); err != nil {
		co.log.Println("AddUserToRoom:", err)
		responder.queueMessage(ErrInternalError(msg.Id))
		return
	}

	co.resolve(resp.ConnectionId)
	co.stats.Incr(stats.AcceptedJoins)
	responder.queueMessage(NoErrOK(msg.Id))

	if !connected {
		co.log.Printf("requester %q disconnected, dropping accepted result", resp.ConnectionId)
		return
	}

	co.sessions.Bind(resp.ConnectionId, room.Id, room.Passcode)

	requester.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		RequestResult: &RequestResult{
			Passcode: resp.Passcode,
			Message:  "request accepted",
			Username: p.username,
			Accepted: true,
		},
	})
}

// CancelForConn drops the connection's pending request, if any, and tells
// the room's occupants to clear the prompt.
func (co *Coordinator) CancelForConn(connId string) {
	p, ok := co.pending[connId]
	if !ok {
		return
	}

	co.log.Printf("cancelling pending request from %q for room %q", connId, p.passcode)
	co.resolve(connId)
	co.notifyCancelled(p)
}

// SweepExpired drops pending requests older than the TTL, notifying the
// requester and clearing occupant prompts.
func (co *Coordinator) SweepExpired() {
	cutoff := co.now().Add(-pendingRequestTTL)
	for connId, p := range co.pending {
		if p.createdAt.After(cutoff) {
			continue
		}

		co.log.Printf("expiring pending request from %q for room %q", connId, p.passcode)
		co.resolve(connId)
		co.notifyCancelled(p)

		if requester, ok := co.sessions.Get(connId); ok {
			requester.queueMessage(&ServerMessage{
				BaseMessage: BaseMessage{Timestamp: Now()},
				RequestResult: &RequestResult{
					Passcode: p.passcode,
					Message:  "request expired",
					Accepted: false,
				},
			})
		}
	}
}

// PendingCount reports the number of unresolved join requests.
func (co *Coordinator) PendingCount() int {
	return len(co.pending)
}

func (co *Coordinator) resolve(connId string) {
	delete(co.pending, connId)
	co.stats.Decr(stats.PendingRequests)
}

func (co *Coordinator) notifyCancelled(p *pendingRequest) {
	co.notifyOccupants(p.passcode, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		RequestCancelled: &RequestCancelled{
			ConnectionId: p.connId,
			Passcode:     p.passcode,
		},
	})
}

func (co *Coordinator) notifyOccupants(passcode string, msg *ServerMessage) {
	for _, occupant := range co.sessions.Occupants(passcode) {
		occupant.queueMessage(msg)
	}
}
