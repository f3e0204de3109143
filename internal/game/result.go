package game

import (
	"math"
	"slices"
)

// RoundInput is a revealed submission, shown to the whole room once
// the round resolves.
type RoundInput struct {
	Name   string     `json:"name"`
	Number Submission `json:"number"`
}

type Result struct {
	Inputs     []RoundInput `json:"inputs"`
	Average    Stat         `json:"average"`
	Target     Stat         `json:"target"`
	Multiplier float64      `json:"multiplier"`
	Winners    []string     `json:"winners"`
	Players    []Player     `json:"players"`
	Round      int          `json:"currentRound"`
}

const (
	lowCountMultiplier  = 1.2
	highCountMultiplier = 0.8
	lowCountThreshold   = 3
)

// resolveRound scores the current round in place: averages the numeric
// submissions, picks every submission at minimum distance from the
// target (ties share the win), applies the penalty and eliminations.
func resolveRound(s *State) Result {
	living := s.Living()

	inputs := make([]RoundInput, 0, len(living))
	numeric := make([]RoundInput, 0, len(living))
	for _, p := range living {
		sub, ok := s.Inputs[p.ID]
		if !ok {
			continue
		}
		in := RoundInput{Name: p.Name, Number: sub}
		inputs = append(inputs, in)
		if !sub.Joker {
			numeric = append(numeric, in)
		}
	}

	multiplier := highCountMultiplier
	if len(living) <= lowCountThreshold {
		multiplier = lowCountMultiplier
	}

	average := math.NaN()
	target := math.NaN()
	winners := []string{}
	if len(numeric) > 0 {
		total := 0
		for _, in := range numeric {
			total += in.Number.Number
		}
		average = float64(total) / float64(len(numeric))
		target = average * multiplier

		minDiff := math.Inf(1)
		for _, in := range numeric {
			diff := math.Abs(float64(in.Number.Number) - target)
			switch {
			case diff < minDiff:
				minDiff = diff
				winners = []string{in.Name}
			case diff == minDiff:
				winners = append(winners, in.Name)
			}
		}
	}

	for i := range s.Players {
		p := &s.Players[i]
		if !p.Alive {
			continue
		}
		sub, ok := s.Inputs[p.ID]
		jokered := ok && sub.Joker
		if !slices.Contains(winners, p.Name) && !jokered {
			p.Score--
		}
		if p.Score <= EliminationScore {
			p.Alive = false
		}
	}

	return Result{
		Inputs:     inputs,
		Average:    Stat(average),
		Target:     Stat(target),
		Multiplier: multiplier,
		Winners:    winners,
		Players:    slices.Clone(s.Players),
		Round:      s.Round,
	}
}
