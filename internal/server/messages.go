package server

import (
	"fmt"
	"net/http"
	"time"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the fixed schema for events received from a client. At
// most one of the event fields is set.
type ClientMessage struct {
	BaseMessage
	Join     *Join         `json:"join,omitempty"`
	Response *JoinResponse `json:"request_response,omitempty"`
	Chat     *Chat         `json:"chat,omitempty"`
	client   *Client
}

// Join announces a candidate's intent to join the room named by passcode.
type Join struct {
	Username string `json:"username"`
	Passcode string `json:"passcode"`
}

// JoinResponse is an occupant's decision on a pending join request,
// addressed by the requester's connection id.
type JoinResponse struct {
	Username     string `json:"username"`
	Passcode     string `json:"passcode"`
	ConnectionId string `json:"connection_id"`
	Accepted     bool   `json:"accepted"`
}

type Chat struct {
	Content string `json:"content"`
}

// ServerMessage is the fixed schema for events sent to a client. At most one
// of the event fields is set.
type ServerMessage struct {
	BaseMessage
	Response         *Response         `json:"response,omitempty"`
	RoomNotFound     *RoomNotFound     `json:"room_not_found,omitempty"`
	RequestSent      *RequestSent      `json:"request_sent,omitempty"`
	NewRequest       *NewRequest       `json:"new_request,omitempty"`
	RequestResult    *RequestResult    `json:"request_response_result,omitempty"`
	RequestCancelled *RequestCancelled `json:"request_cancelled,omitempty"`
	Chat             *ChatBroadcast    `json:"chat_broadcast,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type RoomNotFound struct {
	Message  string `json:"message"`
	Passcode string `json:"passcode"`
}

type RequestSent struct {
	Message      string `json:"message"`
	ConnectionId string `json:"connection_id"`
}

type NewRequest struct {
	Message      string `json:"message"`
	Username     string `json:"username"`
	Passcode     string `json:"passcode"`
	ConnectionId string `json:"connection_id"`
}

type RequestResult struct {
	Passcode string `json:"passcode"`
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	Accepted bool   `json:"accepted"`
}

type RequestCancelled struct {
	ConnectionId string `json:"connection_id"`
	Passcode     string `json:"passcode"`
}

type ChatBroadcast struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

func NoErrOK(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
		},
	}
}

func ErrRoomNotFound(id int, passcode string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		RoomNotFound: &RoomNotFound{
			Message:  fmt.Sprintf("no room found with passcode %s", passcode),
			Passcode: passcode,
		},
	}
}

func ErrRequestNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "request not found",
		},
	}
}

func ErrForbidden(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        "not an occupant of this room",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
