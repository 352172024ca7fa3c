package database

import (
	"github.com/stretchr/testify/mock"
)

type MockStudyRoomRepository struct {
	mock.Mock
}

func (m *MockStudyRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}

func (m *MockStudyRoomRepository) GetRoomByPasscode(passcode string) (Room, error) {
	args := m.Called(passcode)
	return args.Get(0).(Room), args.Error(1)
}

func (m *MockStudyRoomRepository) GetRoomById(roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}

func (m *MockStudyRoomRepository) PasscodeExists(passcode string) (bool, error) {
	args := m.Called(passcode)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudyRoomRepository) AddUserToRoom(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockStudyRoomRepository) LeaveRoom(roomId int) (bool, error) {
	args := m.Called(roomId)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudyRoomRepository) GetUsersByRoom(roomId int) ([]User, error) {
	args := m.Called(roomId)
	return args.Get(0).([]User), args.Error(1)
}

func (m *MockStudyRoomRepository) GetUserByName(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockStudyRoomRepository) UpdateUserSession(userId int, sessionId string) error {
	args := m.Called(userId, sessionId)
	return args.Error(0)
}
