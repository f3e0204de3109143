// Package protocol defines the JSON envelopes exchanged with clients.
// The event names are a wire contract shared with the web client and
// must not change.
package protocol

import (
	"fmt"

	"averagegame/internal/game"
)

// Client -> server.
const (
	MsgCreateRoom   = "create-room"
	MsgJoinRoom     = "join-room"
	MsgStartGame    = "start-game"
	MsgSubmitNumber = "submit-number"
	MsgNextRound    = "next-round"
)

// Server -> client.
const (
	MsgRoomCreated            = "room-created"
	MsgUpdateLobby            = "update-lobby"
	MsgGameStarted            = "game-started"
	MsgUpdateSubmissionStatus = "update-submission-status"
	MsgRoundResult            = "round-result"
	MsgNextRoundStarted       = "next-round-started"
	MsgGameOver               = "game-over"
	MsgError                  = "error"
)

type ClientMessage struct {
	Type       string           `json:"type"`
	PlayerName string           `json:"playerName,omitempty"`
	RoomID     string           `json:"roomId,omitempty"`
	Number     *game.Submission `json:"number,omitempty"`
}

// SubmissionStatus tells the room who has locked in, without leaking
// the submitted values.
type SubmissionStatus struct {
	Name      string `json:"name"`
	Submitted bool   `json:"hasSubmitted"`
}

type ServerMessage struct {
	Type   string             `json:"type"`
	Room   *game.State        `json:"room,omitempty"`
	Status []SubmissionStatus `json:"status,omitempty"`
	Result *game.Result       `json:"result,omitempty"`
	Winner *game.Player       `json:"winner,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func RoomMessage(typ string, s game.State) ServerMessage {
	snapshot := s
	return ServerMessage{Type: typ, Room: &snapshot}
}

func StatusMessage(s game.State) ServerMessage {
	living := s.Living()
	status := make([]SubmissionStatus, 0, len(living))
	for _, p := range living {
		status = append(status, SubmissionStatus{Name: p.Name, Submitted: p.Submitted})
	}
	return ServerMessage{Type: MsgUpdateSubmissionStatus, Status: status}
}

func ResultMessage(r *game.Result) ServerMessage {
	return ServerMessage{Type: MsgRoundResult, Result: r}
}

func GameOverMessage(winner *game.Player) ServerMessage {
	return ServerMessage{Type: MsgGameOver, Winner: winner}
}

func ErrorMessage(format string, args ...any) ServerMessage {
	return ServerMessage{Type: MsgError, Error: fmt.Sprintf(format, args...)}
}
