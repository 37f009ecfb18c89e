// internal/training/stats.go
package training

import (
	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// Stats are observational win counts. They never feed back into learning.
type Stats struct {
	Episodes   int       // Completed episodes.
	AgentWins  int       // Episodes the learning agent (seat 0) won outright.
	Draws      int       // Shared first places scored as a draw for the agent.
	Wins       []int     // Outright wins per seat.
	Ties       int       // Episodes with no unique top scorer.
	LastScores []float64 // Final scores of the most recent episode.
}

func newStats(players int) Stats {
	return Stats{Wins: make([]int, players)}
}

// WinFraction is the share of completed episodes the agent won.
func (s Stats) WinFraction() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.AgentWins) / float64(s.Episodes)
}

func (s *Stats) record(res engine.Result) {
	s.Episodes++
	switch res.Outcome {
	case engine.Win:
		s.AgentWins++
	case engine.Draw:
		s.Draws++
	}
	if res.Winner < 0 {
		s.Ties++
	} else {
		s.Wins[res.Winner]++
	}
	s.LastScores = append(s.LastScores[:0], res.Scores...)
}

func (s Stats) clone() Stats {
	s.Wins = append([]int(nil), s.Wins...)
	s.LastScores = append([]float64(nil), s.LastScores...)
	return s
}
