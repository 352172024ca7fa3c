package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stufocus/go-studyroom/internal/database"
	"github.com/stufocus/go-studyroom/internal/stats"
	"github.com/stufocus/go-studyroom/internal/testutil"
)

// newTestStudyServer creates a StudyServer instance for testing purposes
func newTestStudyServer(t *testing.T, db database.StudyRoomRepository, su *stats.MockStatsUpdater) *StudyServer {
	su.On("RegisterMetric", mock.Anything).Times(5)
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()

	logger := testutil.TestLogger(t)
	ss, err := NewStudyServer(logger, db, su)
	if err != nil {
		t.Fatalf("failed to create test StudyServer: %v", err)
	}
	return ss
}

func TestNewStudyServer(t *testing.T) {
	db := &database.MockStudyRoomRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Times(5)

	logger := testutil.TestLogger(t)
	ss, err := NewStudyServer(logger, db, su)
	assert.NoError(t, err, "expected no error creating StudyServer")
	assert.NotNil(t, ss, "expected StudyServer to be non-nil")
	assert.Equal(t, logger, ss.log, "expected logger to be set")
	assert.Equal(t, db, ss.db, "expected database repository to be set")
	assert.NotNil(t, ss.sessions, "expected session registry to be initialized")
	assert.NotNil(t, ss.coordinator, "expected coordinator to be initialized")
	assert.NotNil(t, ss.joinChan, "expected joinChan to be initialized")
	assert.NotNil(t, ss.responseChan, "expected responseChan to be initialized")
	assert.NotNil(t, ss.chatChan, "expected chatChan to be initialized")
	assert.NotNil(t, ss.stop, "expected stop channel to be initialized")
}

func TestAddClient(t *testing.T) {
	t.Run("unbound connection", func(t *testing.T) {
		ss := newTestStudyServer(t, &database.MockStudyRoomRepository{}, &stats.MockStatsUpdater{})

		c := newTestClient("conn-1", "alice")
		ss.addClient(c)

		assert.Equal(t, 1, ss.sessions.Len(), "expected session to be registered")
		_, bound := ss.sessions.RoomOf("conn-1")
		assert.False(t, bound, "expected connection to start unbound")
	})

	t.Run("occupant connection is bound on register", func(t *testing.T) {
		ss := newTestStudyServer(t, &database.MockStudyRoomRepository{}, &stats.MockStatsUpdater{})

		c := newTestClient("conn-1", "alice")
		c.BindRoom(1, "12345")
		ss.addClient(c)

		assert.True(t, ss.sessions.IsOccupant("conn-1", "12345"), "expected occupant connection to be bound")
	})
}

func TestRemoveClient(t *testing.T) {
	t.Run("unbound disconnect is a no-op on the directory", func(t *testing.T) {
		db := &database.MockStudyRoomRepository{}
		defer db.AssertExpectations(t)

		ss := newTestStudyServer(t, db, &stats.MockStatsUpdater{})

		c := newTestClient("conn-1", "alice")
		ss.addClient(c)
		ss.removeClient(c)

		assert.Equal(t, 0, ss.sessions.Len(), "expected session to be removed")
		db.AssertNotCalled(t, "LeaveRoom", mock.Anything)
	})

	t.Run("bound disconnect decrements the room", func(t *testing.T) {
		db := &database.MockStudyRoomRepository{}
		defer db.AssertExpectations(t)
		db.On("LeaveRoom", 1).Return(false, nil).Once()

		ss := newTestStudyServer(t, db, &stats.MockStatsUpdater{})

		c := newTestClient("conn-1", "alice")
		c.BindRoom(1, "12345")
		ss.addClient(c)
		ss.removeClient(c)

		assert.Equal(t, 0, ss.sessions.Len(), "expected session to be removed")
	})

	t.Run("last disconnect deletes the room", func(t *testing.T) {
		db := &database.MockStudyRoomRepository{}
		defer db.AssertExpectations(t)
		db.On("LeaveRoom", 1).Return(true, nil).Once()

		su := &stats.MockStatsUpdater{}
		ss := newTestStudyServer(t, db, su)

		c := newTestClient("conn-1", "alice")
		c.BindRoom(1, "12345")
		ss.addClient(c)
		ss.removeClient(c)

		su.AssertCalled(t, "Decr", stats.ActiveRooms)
	})

	t.Run("disconnect cancels the connection's pending request", func(t *testing.T) {
		db := &database.MockStudyRoomRepository{}
		db.On("GetRoomByPasscode", "12345").Return(database.Room{Id: 1, Passcode: "12345"}, nil)

		ss := newTestStudyServer(t, db, &stats.MockStatsUpdater{})

		requester := newTestClient("conn-req", "bob")
		ss.addClient(requester)
		ss.coordinator.RequestJoin(joinMsg(1, requester, "bob", "12345"))
		assert.Equal(t, 1, ss.coordinator.PendingCount())

		ss.removeClient(requester)
		assert.Equal(t, 0, ss.coordinator.PendingCount(), "expected pending request to be cancelled on disconnect")
	})
}

func TestHandleChat(t *testing.T) {
	t.Run("chat fans out to the sender's room only", func(t *testing.T) {
		ss := newTestStudyServer(t, &database.MockStudyRoomRepository{}, &stats.MockStatsUpdater{})

		alice := newTestClient("conn-1", "alice")
		alice.BindRoom(1, "12345")
		bob := newTestClient("conn-2", "bob")
		bob.BindRoom(1, "12345")
		carol := newTestClient("conn-3", "carol")
		carol.BindRoom(2, "67890")

		ss.addClient(alice)
		ss.addClient(bob)
		ss.addClient(carol)

		ss.handleChat(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Chat:        &Chat{Content: "hello"},
			client:      alice,
		})

		for _, c := range []*Client{alice, bob} {
			msg := receiveMessage(t, c)
			assert.NotNil(t, msg.Chat, "expected chat_broadcast event")
			assert.Equal(t, "alice", msg.Chat.Username)
			assert.Equal(t, "hello", msg.Chat.Content)
		}

		assertNoMessage(t, carol)
	})

	t.Run("chat from an unbound connection is rejected", func(t *testing.T) {
		ss := newTestStudyServer(t, &database.MockStudyRoomRepository{}, &stats.MockStatsUpdater{})

		outsider := newTestClient("conn-1", "mallory")
		ss.addClient(outsider)

		ss.handleChat(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Chat:        &Chat{Content: "hello"},
			client:      outsider,
		})

		msg := receiveMessage(t, outsider)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, http.StatusForbidden, msg.Response.ResponseCode)
	})
}

func TestStudyServerShutdown(t *testing.T) {
	t.Run("successful shutdown", func(t *testing.T) {
		ss := newTestStudyServer(t, &database.MockStudyRoomRepository{}, &stats.MockStatsUpdater{})

		go ss.Run()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, ss.Shutdown(ctx), "expected clean shutdown")
	})

	t.Run("shutdown stops registered clients", func(t *testing.T) {
		ss := newTestStudyServer(t, &database.MockStudyRoomRepository{}, &stats.MockStatsUpdater{})

		go ss.Run()

		c := newTestClient("conn-1", "alice")
		ss.RegisterClient(c)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, ss.Shutdown(ctx))

		select {
		case <-c.stop:
			// client stop channel closed
		case <-time.After(100 * time.Millisecond):
			t.Error("timeout: client was not stopped on shutdown")
		}
	})
}
