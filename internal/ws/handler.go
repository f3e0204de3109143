// Package ws is the session protocol handler: one websocket connection
// is one player. The first create-room or join-room intent binds the
// session to a room; everything after that is forwarded to the room
// actor, and the connection closing removes the player again.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"averagegame/internal/game"
	"averagegame/internal/hub"
	"averagegame/internal/protocol"
	"averagegame/internal/room"
)

const writeTimeout = 3 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// The session id doubles as the player id; stable for the
		// lifetime of the connection.
		playerID := uuid.NewString()
		log := log.With(zap.String("player", playerID))
		out := make(chan protocol.ServerMessage, 8)

		var cur *room.Room
		defer func() {
			if cur == nil {
				close(out)
				return
			}
			select {
			case cur.Inbox() <- room.Leave{PlayerID: playerID}:
			case <-cur.Done():
				// Room already torn down; it closed out for us.
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("marshal outbound message", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Session-local errors bypass the room and go straight out on
		// the connection.
		sendErr := func(text string) {
			payload, err := json.Marshal(protocol.ErrorMessage("%s", text))
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
			_ = conn.Write(ctx, websocket.MessageText, payload)
			cancel()
		}

		// Reader loop. No read deadline: a round may legitimately sit
		// idle while players think.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (room.Leave in defer):
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				sendErr("bad json")
				continue
			}

			switch cm.Type {
			case protocol.MsgCreateRoom:
				if cur != nil {
					sendErr("already in a room")
					continue
				}
				if game.NormalizeName(cm.PlayerName) == "" {
					sendErr("player name required")
					continue
				}
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.CreateRoom{Reply: reply}
				rm := <-reply
				if rm == nil {
					sendErr("failed to create room")
					continue
				}
				if err := join(rm, playerID, cm.PlayerName, out); err != nil {
					sendErr(err.Error())
					continue
				}
				cur = rm

			case protocol.MsgJoinRoom:
				if cur != nil {
					sendErr("already in a room")
					continue
				}
				if game.NormalizeName(cm.PlayerName) == "" {
					sendErr("player name required")
					continue
				}
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.GetRoom{Code: normalizeCode(cm.RoomID), Reply: reply}
				rm := <-reply
				if rm == nil {
					sendErr("room not found")
					continue
				}
				if err := join(rm, playerID, cm.PlayerName, out); err != nil {
					sendErr(err.Error())
					continue
				}
				cur = rm

			case protocol.MsgStartGame, protocol.MsgSubmitNumber, protocol.MsgNextRound:
				if cur == nil {
					sendErr("not in a room")
					continue
				}
				cmd, ok := toCommand(cm, playerID)
				if !ok {
					sendErr("number required")
					continue
				}
				cur.Inbox() <- room.FromClient{PlayerID: playerID, Cmd: cmd}

			default:
				sendErr("unknown type")
			}
		}
	}
}

// join registers this session with the room and waits for the verdict.
// On failure nothing was registered and the session stays unbound. The
// room can die between the registry lookup and this call (last player
// left, registry removal still in flight), so every wait also watches
// the room's done signal.
func join(rm *room.Room, playerID, name string, out chan protocol.ServerMessage) error {
	reply := make(chan error, 1)
	select {
	case rm.Inbox() <- room.Join{PlayerID: playerID, Name: name, Outbox: out, Reply: reply}:
	case <-rm.Done():
		return room.ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-rm.Done():
		// The room may have answered just before exiting; prefer its
		// verdict so a registered outbox is never mistaken for a
		// failed join.
		select {
		case err := <-reply:
			return err
		default:
			return room.ErrClosed
		}
	}
}

func toCommand(cm protocol.ClientMessage, playerID string) (game.Command, bool) {
	switch cm.Type {
	case protocol.MsgStartGame:
		return game.Command{Type: game.CmdStart, PlayerID: playerID}, true
	case protocol.MsgSubmitNumber:
		if cm.Number == nil {
			return game.Command{}, false
		}
		return game.Command{Type: game.CmdSubmit, PlayerID: playerID, Value: *cm.Number}, true
	case protocol.MsgNextRound:
		return game.Command{Type: game.CmdNextRound, PlayerID: playerID}, true
	default:
		return game.Command{}, false
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
