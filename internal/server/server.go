package server

import (
	"context"
	"log"
	"time"

	"github.com/stufocus/go-studyroom/internal/database"
	"github.com/stufocus/go-studyroom/internal/stats"
)

const sweepInterval = 30 * time.Second

// StudyServer owns the realtime layer: the session registry, the
// join-request coordinator and the fan-out of chat messages. All state
// mutations happen on its run loop.
type StudyServer struct {
	log            *log.Logger
	db             database.StudyRoomRepository
	stats          stats.StatsProvider
	sessions       *SessionRegistry
	coordinator    *Coordinator
	joinChan       chan *ClientMessage
	responseChan   chan *ClientMessage
	chatChan       chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	stop           chan struct{}
	done           chan struct{}
}

func NewStudyServer(logger *log.Logger, db database.StudyRoomRepository, sp stats.StatsProvider) (*StudyServer, error) {
	sessions := NewSessionRegistry(logger)

	for _, metric := range []string{
		stats.ConnectedClients,
		stats.ActiveRooms,
		stats.PendingRequests,
		stats.AcceptedJoins,
		stats.DeclinedJoins,
	} {
		sp.RegisterMetric(metric)
	}

	return &StudyServer{
		log:            logger,
		db:             db,
		stats:          sp,
		sessions:       sessions,
		coordinator:    NewCoordinator(db, sessions, sp, logger),
		joinChan:       make(chan *ClientMessage, 256),
		responseChan:   make(chan *ClientMessage, 256),
		chatChan:       make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (ss *StudyServer) Run() {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case msg := <-ss.joinChan:
			ss.log.Printf("received join request from %q", msg.client.connId)
			ss.coordinator.RequestJoin(msg)
		case msg := <-ss.responseChan:
			ss.log.Printf("received request response from %q", msg.client.connId)
			ss.coordinator.Respond(msg)
		case msg := <-ss.chatChan:
			ss.handleChat(msg)
		case client := <-ss.RegisterChan:
			ss.addClient(client)
		case client := <-ss.deRegisterChan:
			ss.removeClient(client)
		case <-sweep.C:
			ss.coordinator.SweepExpired()
		case <-ss.stop:
			ss.log.Println("stopping clients")
			for _, c := range ss.sessions.Clients() {
				c.stopClient()
			}

			close(ss.done)
			return
		}
	}
}

// RegisterClient hands a newly upgraded connection to the run loop.
func (ss *StudyServer) RegisterClient(c *Client) {
	ss.RegisterChan <- c
}

func (ss *StudyServer) addClient(c *Client) {
	ss.log.Printf("adding connection %q from %q", c.connId, c.username)
	ss.sessions.Register(c)
	ss.stats.Incr(stats.ConnectedClients)

	if c.roomPasscode != "" {
		ss.sessions.Bind(c.connId, c.roomId, c.roomPasscode)
	}
}

// removeClient handles a disconnect: the session is dropped, any pending
// join request from the connection is cancelled and, if the connection was
// an occupant, the room's count is decremented (deleting the room at zero)
// in one transaction.
func (ss *StudyServer) removeClient(c *Client) {
	ss.log.Printf("removing connection %q from %q", c.connId, c.username)

	ss.coordinator.CancelForConn(c.connId)

	roomId, passcode, bound := ss.sessions.Remove(c.connId)
	ss.stats.Decr(stats.ConnectedClients)

	if !bound {
		ss.log.Printf("connection %q had no room context", c.connId)
		return
	}

	deleted, err := ss.db.LeaveRoom(roomId)
	if err != nil {
		ss.log.Println("LeaveRoom:", err)
		return
	}

	if deleted {
		ss.log.Printf("room %q deleted, no occupants remain", passcode)
		ss.stats.Decr(stats.ActiveRooms)
	}
}

// handleChat fans a chat message out to the occupants of the sender's room.
func (ss *StudyServer) handleChat(msg *ClientMessage) {
	c := msg.client

	passcode, ok := ss.sessions.RoomOf(c.connId)
	if !ok {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	broadcast := &ServerMessage{
		BaseMessage: BaseMessage{Id: msg.Id, Timestamp: msg.Timestamp},
		Chat: &ChatBroadcast{
			Username: c.username,
			Content:  msg.Chat.Content,
		},
	}

	for _, occupant := range ss.sessions.Occupants(passcode) {
		occupant.queueMessage(broadcast)
	}
}

func (ss *StudyServer) Shutdown(ctx context.Context) error {
	ss.log.Println("received shutdown signal")
	close(ss.stop)

	select {
	case <-ss.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
