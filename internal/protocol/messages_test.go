package protocol

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"averagegame/internal/game"
)

func TestRoomPayloadRoundTripPreservesPlayers(t *testing.T) {
	state := game.NewState("AB12")
	state.Phase = game.PhaseInRound
	state.Round = 3
	state.Players = []game.Player{
		{ID: "p1", Name: "ALICE", Score: -2, Alive: true, UsedJoker: true, Submitted: true},
		{ID: "p2", Name: "BOB", Score: -10, Alive: false, UsedJoker: false, Submitted: false},
	}

	data, err := json.Marshal(RoomMessage(MsgUpdateLobby, state))
	require.NoError(t, err)

	var decoded ServerMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.NotNil(t, decoded.Room)
	assert.Equal(t, state.Code, decoded.Room.Code)
	assert.Equal(t, state.Phase, decoded.Room.Phase)
	assert.Equal(t, state.Round, decoded.Room.Round)
	assert.Equal(t, state.Players, decoded.Room.Players)
}

func TestRoomPayloadNeverLeaksInputs(t *testing.T) {
	state := game.NewState("AB12")
	state.Phase = game.PhaseInRound
	state.Players = []game.Player{
		{ID: "p1", Name: "ALICE", Alive: true, Submitted: true},
		{ID: "p2", Name: "BOB", Alive: true},
	}
	state.Inputs = map[string]game.Submission{"p1": game.Number(42)}

	data, err := json.Marshal(RoomMessage(MsgGameStarted, state))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "42")
	assert.NotContains(t, string(data), "inputs")
}

func TestStatusMessageListsLivingPlayersOnly(t *testing.T) {
	state := game.NewState("AB12")
	state.Players = []game.Player{
		{ID: "p1", Name: "ALICE", Alive: true, Submitted: true},
		{ID: "p2", Name: "BOB", Alive: true},
		{ID: "p3", Name: "EVE", Alive: false, Submitted: true},
	}

	msg := StatusMessage(state)

	assert.Equal(t, MsgUpdateSubmissionStatus, msg.Type)
	assert.Equal(t, []SubmissionStatus{
		{Name: "ALICE", Submitted: true},
		{Name: "BOB", Submitted: false},
	}, msg.Status)
}

func TestSubmissionWireForms(t *testing.T) {
	cases := []struct {
		name string
		in   game.Submission
		want string
	}{
		{name: "number", in: game.Number(42), want: "42"},
		{name: "joker", in: game.Joker(), want: `"JOKER"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))

			var back game.Submission
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tc.in, back)
		})
	}
}

func TestClientMessageParsesJokerSubmission(t *testing.T) {
	var cm ClientMessage
	raw := `{"type":"submit-number","roomId":"AB12","number":"JOKER"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &cm))

	assert.Equal(t, MsgSubmitNumber, cm.Type)
	require.NotNil(t, cm.Number)
	assert.True(t, cm.Number.Joker)
}

func TestUndefinedStatsSerializeAsNull(t *testing.T) {
	// A round where everyone played the joker has no average or target.
	result := game.Result{
		Average: game.Stat(math.NaN()),
		Target:  game.Stat(math.NaN()),
		Winners: []string{},
		Round:   1,
	}

	data, err := json.Marshal(ResultMessage(&result))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"average":null`)
	assert.Contains(t, string(data), `"target":null`)

	var back ServerMessage
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Result)
	assert.True(t, back.Result.Average.IsNaN())
}
