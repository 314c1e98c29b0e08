// Package protocol defines the wire messages exchanged with clients over the
// websocket gateway.
package protocol

// Client -> server event names.
const (
	EvtCreateRoom = "createRoom"
	EvtJoinRoom   = "joinRoom"
	EvtMakeChoice = "makeChoice"
	EvtPlayAgain  = "playAgain"
	EvtLeaveRoom  = "leaveRoom"
)

// Server -> client event names.
const (
	EvtRoomCreated = "roomCreated"
	EvtRoomJoined  = "roomJoined"
	EvtGameReady   = "gameReady"
	EvtPlayerReady = "playerReady"
	EvtCountdown   = "countdown"
	EvtGameResult  = "gameResult"
	EvtPlayerLeft  = "playerLeft"
	EvtError       = "error"
)

// Round results as sent in gameResult.
const (
	ResultTie     = "tie"
	ResultPlayer1 = "player1"
	ResultPlayer2 = "player2"
)

type ClientMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	Choice     string `json:"choice,omitempty"`
}

// PlayerView is the client-visible projection of a player. Choice is only
// populated inside gameResult; pending choices stay hidden.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Choice string `json:"choice,omitempty"`
}

type ServerMessage struct {
	Type    string       `json:"type"`
	RoomID  string       `json:"roomId,omitempty"`
	Players []PlayerView `json:"players,omitempty"`
	Count   *int         `json:"count,omitempty"` // pointer so the final "go" tick keeps count 0
	Message string       `json:"message,omitempty"`
	Result  string       `json:"result,omitempty"`
}

// ErrorMessage builds the error{message} event sent to a single offending
// connection.
func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Type: EvtError, Message: msg}
}
