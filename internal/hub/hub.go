// Package hub owns the registry of live rooms. Like the rooms
// themselves it is an actor: creation, lookup and deletion are
// serialized through one goroutine, so code collisions and
// create/delete races cannot happen.
package hub

import (
	"context"
	"crypto/rand"
	"math/big"

	"go.uber.org/zap"

	"averagegame/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.createRoom()

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				delete(h.rooms, msg.Code)
				h.log.Info("room removed", zap.String("room", msg.Code))

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) createRoom() *room.Room {
	var code string
	for {
		c, err := GenerateCode()
		if err != nil {
			h.log.Error("failed to generate room code", zap.Error(err))
			return nil
		}
		if _, taken := h.rooms[c]; !taken {
			code = c
			break
		}
		h.log.Warn("collision on room code, regenerating", zap.String("room", c))
	}

	rm := room.New(h.ctx, code, h.log, func(c string) {
		h.inbox <- RemoveRoom{Code: c}
	})
	h.rooms[code] = rm
	h.log.Info("room created", zap.String("room", code))
	return rm
}

const codeLength = 4

// GenerateCode returns a short uppercase room code.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
