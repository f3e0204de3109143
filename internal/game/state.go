package game

import (
	"encoding/json"
	"errors"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// JokerToken is the literal wire form of a joker submission.
const JokerToken = "JOKER"

// Submission is one player's input for a round: an integer in [0,100]
// or the JOKER token.
type Submission struct {
	Joker  bool
	Number int
}

func Number(n int) Submission { return Submission{Number: n} }
func Joker() Submission       { return Submission{Joker: true} }

func (s Submission) MarshalJSON() ([]byte, error) {
	if s.Joker {
		return json.Marshal(JokerToken)
	}
	return json.Marshal(s.Number)
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	if string(data) == `"`+JokerToken+`"` {
		*s = Submission{Joker: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("submission must be a number or " + JokerToken)
	}
	*s = Submission{Number: n}
	return nil
}

// Stat is a float statistic that serializes NaN as null. The average
// and target of a round with zero numeric submissions are undefined.
type Stat float64

func (s Stat) IsNaN() bool { return math.IsNaN(float64(s)) }

func (s Stat) MarshalJSON() ([]byte, error) {
	if s.IsNaN() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(s), 'f', -1, 64)), nil
}

func (s *Stat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Stat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseInRound  Phase = "in-round"
	PhaseResolved Phase = "resolved"
	PhaseGameOver Phase = "game-over"
)

type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Alive     bool   `json:"isAlive"`
	UsedJoker bool   `json:"hasUsedJoker"`
	Submitted bool   `json:"hasSubmitted"`
}

// State is the full state of one room. Inputs is keyed by player id
// and stays out of the JSON form: submitted values are hidden from the
// other players until the round resolves.
type State struct {
	Code    string                `json:"id"`
	Phase   Phase                 `json:"phase"`
	Round   int                   `json:"currentRound"`
	Players []Player              `json:"players"`
	Inputs  map[string]Submission `json:"-"`
}

func NewState(code string) State {
	return State{
		Code:    code,
		Phase:   PhaseLobby,
		Round:   1,
		Players: []Player{},
		Inputs:  map[string]Submission{},
	}
}

// NormalizeName trims and upper-cases a display name at intake.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Living returns the players still in the game, in join order.
func (s State) Living() []Player {
	living := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Alive {
			living = append(living, p)
		}
	}
	return living
}

func (s State) playerIndex(id string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == id })
}

func (s State) allLivingSubmitted() bool {
	for _, p := range s.Players {
		if p.Alive && !p.Submitted {
			return false
		}
	}
	return true
}

func (s State) clone() State {
	ns := s
	ns.Players = slices.Clone(s.Players)
	ns.Inputs = maps.Clone(s.Inputs)
	return ns
}
