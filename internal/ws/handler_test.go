package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"averagegame/internal/protocol"
	"averagegame/internal/room"
)

// A session can look a room up in the registry, then lose the race
// against the room emptying out. Binding to the stale pointer must
// come back with an error instead of waiting on a goroutine that will
// never answer.
func TestJoinReturnsWhenRoomIsGone(t *testing.T) {
	r := room.New(context.Background(), "AB12", zap.NewNop(), nil)

	r.Inbox() <- room.Shutdown{}
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("room never shut down")
	}

	out := make(chan protocol.ServerMessage, 8)
	verdict := make(chan error, 1)
	go func() { verdict <- join(r, "p1", "alice", out) }()

	select {
	case err := <-verdict:
		require.ErrorIs(t, err, room.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("join to a dead room never returned")
	}
}
