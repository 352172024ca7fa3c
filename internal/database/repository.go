package database

type StudyRoomRepository interface {
	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomByPasscode(passcode string) (Room, error)
	GetRoomById(roomId int) (Room, error)
	PasscodeExists(passcode string) (bool, error)
	AddUserToRoom(params CreateUserParams) (User, error)
	LeaveRoom(roomId int) (bool, error)
	GetUsersByRoom(roomId int) ([]User, error)
	GetUserByName(username string) (User, error)
	UpdateUserSession(userId int, sessionId string) error
}
