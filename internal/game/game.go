package game

import "errors"

var ErrWrongPhase = errors.New("action not valid in current phase")
var ErrInsufficientPlayers = errors.New("need at least 2 players")
var ErrUnknownPlayer = errors.New("player not in room")
var ErrEliminated = errors.New("player is eliminated")
var ErrNumberOutOfRange = errors.New("number must be between 0 and 100")
var ErrJokerSpent = errors.New("joker already used")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	MinPlayers       = 2
	MinNumber        = 0
	MaxNumber        = 100
	EliminationScore = -10
)

type CommandType string

const (
	CmdJoin      CommandType = "Join"
	CmdStart     CommandType = "Start"
	CmdSubmit    CommandType = "Submit"
	CmdNextRound CommandType = "NextRound"
	CmdLeave     CommandType = "Leave"
)

type Command struct {
	Type     CommandType
	PlayerID string
	Name     string     // Join only
	Value    Submission // Submit only
}

type EventType string

const (
	EvtPlayerJoined       EventType = "PlayerJoined"
	EvtPlayerLeft         EventType = "PlayerLeft"
	EvtGameStarted        EventType = "GameStarted"
	EvtSubmissionRecorded EventType = "SubmissionRecorded"
	EvtRoundResolved      EventType = "RoundResolved"
	EvtNextRoundStarted   EventType = "NextRoundStarted"
	EvtGameOver           EventType = "GameOver"
)

type Event struct {
	Type     EventType
	PlayerID string
	Result   *Result // RoundResolved only
	Winner   *Player // GameOver only; nil means nobody survived
}

// Apply runs one command against a room snapshot and returns the
// events it produced plus the successor state. The input state is
// never mutated; on error it is returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdJoin:
		return applyJoin(s, cmd)
	case CmdStart:
		return applyStart(s)
	case CmdSubmit:
		return applySubmit(s, cmd)
	case CmdNextRound:
		return applyNextRound(s)
	case CmdLeave:
		return applyLeave(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseLobby {
		return nil, s, ErrWrongPhase
	}
	ns := s.clone()
	ns.Players = append(ns.Players, Player{
		ID:    cmd.PlayerID,
		Name:  NormalizeName(cmd.Name),
		Alive: true,
	})
	return []Event{{Type: EvtPlayerJoined, PlayerID: cmd.PlayerID}}, ns, nil
}

func applyStart(s State) ([]Event, State, error) {
	if s.Phase != PhaseLobby {
		return nil, s, ErrWrongPhase
	}
	if len(s.Players) < MinPlayers {
		return nil, s, ErrInsufficientPlayers
	}
	ns := s.clone()
	ns.Phase = PhaseInRound
	return []Event{{Type: EvtGameStarted}}, ns, nil
}

func applySubmit(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseInRound {
		// A re-send that arrives after its own submission already closed
		// the round is a duplicate, and duplicates are dropped, not
		// refused.
		if s.Phase == PhaseResolved {
			if i := s.playerIndex(cmd.PlayerID); i >= 0 && s.Players[i].Submitted {
				return nil, s, nil
			}
		}
		return nil, s, ErrWrongPhase
	}
	i := s.playerIndex(cmd.PlayerID)
	if i < 0 {
		return nil, s, ErrUnknownPlayer
	}
	if !s.Players[i].Alive {
		return nil, s, ErrEliminated
	}
	if s.Players[i].Submitted {
		// Exactly-once-per-round: a duplicate is dropped, not refused.
		return nil, s, nil
	}
	if cmd.Value.Joker {
		if s.Players[i].UsedJoker {
			return nil, s, ErrJokerSpent
		}
	} else if cmd.Value.Number < MinNumber || cmd.Value.Number > MaxNumber {
		return nil, s, ErrNumberOutOfRange
	}

	ns := s.clone()
	ns.Inputs[cmd.PlayerID] = cmd.Value
	ns.Players[i].Submitted = true
	if cmd.Value.Joker {
		ns.Players[i].UsedJoker = true
	}

	if !ns.allLivingSubmitted() {
		return []Event{{Type: EvtSubmissionRecorded, PlayerID: cmd.PlayerID}}, ns, nil
	}

	result := resolveRound(&ns)
	ns.Phase = PhaseResolved
	return []Event{{Type: EvtRoundResolved, Result: &result}}, ns, nil
}

func applyNextRound(s State) ([]Event, State, error) {
	if s.Phase != PhaseResolved {
		return nil, s, ErrWrongPhase
	}
	ns := s.clone()

	if living := ns.Living(); len(living) <= 1 {
		ns.Phase = PhaseGameOver
		var winner *Player
		if len(living) == 1 {
			w := living[0]
			winner = &w
		}
		return []Event{{Type: EvtGameOver, Winner: winner}}, ns, nil
	}

	ns.Round++
	ns.Inputs = map[string]Submission{}
	for i := range ns.Players {
		if ns.Players[i].Alive {
			ns.Players[i].Submitted = false
		}
	}
	ns.Phase = PhaseInRound
	return []Event{{Type: EvtNextRoundStarted}}, ns, nil
}

func applyLeave(s State, cmd Command) ([]Event, State, error) {
	i := s.playerIndex(cmd.PlayerID)
	if i < 0 {
		return nil, s, ErrUnknownPlayer
	}
	ns := s.clone()
	ns.Players = append(ns.Players[:i], ns.Players[i+1:]...)
	delete(ns.Inputs, cmd.PlayerID)

	events := []Event{{Type: EvtPlayerLeft, PlayerID: cmd.PlayerID}}

	// Removing the last holdout can complete the round for everyone else.
	if ns.Phase == PhaseInRound && len(ns.Living()) > 0 && ns.allLivingSubmitted() {
		result := resolveRound(&ns)
		ns.Phase = PhaseResolved
		events = append(events, Event{Type: EvtRoundResolved, Result: &result})
	}
	return events, ns, nil
}
