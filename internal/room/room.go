// Package room runs one game session as a single-owner actor: every
// mutation of the room state goes through one goroutine, which keeps
// the once-per-round submission and resolution invariants without
// locks.
package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"averagegame/internal/game"
	"averagegame/internal/protocol"
)

// ErrClosed answers a Join that reaches a room whose goroutine has
// already exited.
var ErrClosed = errors.New("room closed")

type Msg interface{ isRoomMsg() }

// Join registers a client outbox and adds the player to the room. The
// outcome is reported on Reply; on error the outbox is not registered.
type Join struct {
	PlayerID string
	Name     string
	Outbox   chan protocol.ServerMessage
	Reply    chan error
}

type Leave struct{ PlayerID string }

type FromClient struct {
	PlayerID string
	Cmd      game.Command
}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isRoomMsg()       {}
func (Leave) isRoomMsg()      {}
func (FromClient) isRoomMsg() {}
func (GetState) isRoomMsg()   {}
func (Shutdown) isRoomMsg()   {}

// View reflects internal state without data races, for tests.
type View struct {
	NumClients int
	State      game.State
}

type Room struct {
	code    string
	inbox   chan Msg
	state   game.State
	clients map[string]chan protocol.ServerMessage
	onEmpty func(code string)
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New starts the room goroutine. onEmpty is called once, from the room
// goroutine, when the last player leaves.
func New(parent context.Context, code string, log *zap.Logger, onEmpty func(code string)) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		code:    code,
		inbox:   make(chan Msg, 64),
		state:   game.NewState(code),
		clients: make(map[string]chan protocol.ServerMessage),
		onEmpty: onEmpty,
		log:     log.With(zap.String("room", code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

// Done is closed once the room goroutine has exited. A sender holding a
// stale pointer (the registry removes emptied rooms asynchronously)
// must select on it next to any reply it waits for.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				if empty := r.handleLeave(msg.PlayerID); empty {
					if r.onEmpty != nil {
						r.onEmpty(r.code)
					}
					r.shutdown()
					return
				}

			case FromClient:
				r.handleCommand(msg.PlayerID, msg.Cmd)

			case GetState:
				msg.Reply <- View{NumClients: len(r.clients), State: r.state}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	cmd := game.Command{Type: game.CmdJoin, PlayerID: msg.PlayerID, Name: msg.Name}
	_, next, err := game.Apply(r.state, cmd)
	if err != nil {
		msg.Reply <- err
		return
	}

	r.state = next
	r.clients[msg.PlayerID] = msg.Outbox
	msg.Reply <- nil

	// The creator gets room-created; later joiners refresh everyone's
	// lobby view.
	if len(r.state.Players) == 1 {
		r.sendTo(msg.PlayerID, protocol.RoomMessage(protocol.MsgRoomCreated, r.state))
	} else {
		r.broadcast(protocol.RoomMessage(protocol.MsgUpdateLobby, r.state))
	}

	r.log.Info("player joined",
		zap.String("player", msg.PlayerID),
		zap.Int("players", len(r.state.Players)))
}

func (r *Room) handleCommand(playerID string, cmd game.Command) {
	events, next, err := game.Apply(r.state, cmd)
	if err != nil {
		// A bad action never touches state; only the sender hears about it.
		r.sendTo(playerID, protocol.ErrorMessage("%s", err))
		return
	}

	r.state = next
	r.emit(events)
}

func (r *Room) handleLeave(playerID string) (empty bool) {
	if ch, ok := r.clients[playerID]; ok {
		delete(r.clients, playerID)
		close(ch)
	}

	events, next, err := game.Apply(r.state, game.Command{Type: game.CmdLeave, PlayerID: playerID})
	if err != nil {
		// Never joined the game state; nothing to announce.
		return len(r.state.Players) == 0
	}

	r.state = next
	r.log.Info("player left",
		zap.String("player", playerID),
		zap.Int("players", len(r.state.Players)))

	if len(r.state.Players) == 0 {
		return true
	}

	r.emit(events)
	return false
}

func (r *Room) emit(events []game.Event) {
	for _, ev := range events {
		switch ev.Type {
		case game.EvtGameStarted:
			r.broadcast(protocol.RoomMessage(protocol.MsgGameStarted, r.state))

		case game.EvtSubmissionRecorded:
			r.broadcast(protocol.StatusMessage(r.state))

		case game.EvtRoundResolved:
			r.broadcast(protocol.ResultMessage(ev.Result))

		case game.EvtNextRoundStarted:
			r.broadcast(protocol.RoomMessage(protocol.MsgNextRoundStarted, r.state))

		case game.EvtGameOver:
			r.broadcast(protocol.GameOverMessage(ev.Winner))

		case game.EvtPlayerLeft:
			r.broadcast(protocol.RoomMessage(protocol.MsgUpdateLobby, r.state))
		}
	}
}

func (r *Room) sendTo(playerID string, msg protocol.ServerMessage) {
	ch, ok := r.clients[playerID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		r.drop(playerID, ch)
	}
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for id, ch := range r.clients {
		select {
		case ch <- msg:
		default:
			// Client is slow/full - drop them.
			r.drop(id, ch)
		}
	}
}

// drop disconnects a client that stopped reading. The Leave goes
// through the inbox rather than handleLeave directly: drop runs
// mid-broadcast, and leaving can itself resolve the round and
// broadcast again.
func (r *Room) drop(playerID string, ch chan protocol.ServerMessage) {
	close(ch)
	delete(r.clients, playerID)
	r.log.Warn("dropping slow client", zap.String("player", playerID))
	select {
	case r.inbox <- Leave{PlayerID: playerID}:
	default:
		// Inbox full; the socket teardown will send its own Leave.
		r.log.Warn("could not queue leave for dropped client", zap.String("player", playerID))
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()

	// Answer whatever joins were already queued behind the message
	// that killed the room; anyone sending after this drain is watching
	// Done instead.
	for {
		select {
		case m := <-r.inbox:
			if j, ok := m.(Join); ok {
				j.Reply <- ErrClosed
			}
		default:
			return
		}
	}
}
