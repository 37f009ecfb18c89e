package engine

import "testing"

// TestOutcomeTieForFirst: [3, 3] is a loss for the agent with no winner.
func TestOutcomeTieForFirst(t *testing.T) {
	outcome, winner := DecideOutcome([]float64{3.0, 3.0}, TiePenalized)
	if outcome != Loss {
		t.Errorf("outcome = %v, want Loss", outcome)
	}
	if winner != -1 {
		t.Errorf("winner = %d, want -1", winner)
	}
}

// TestOutcomeAgentWins: [3, 2] is a win for seat 0.
func TestOutcomeAgentWins(t *testing.T) {
	outcome, winner := DecideOutcome([]float64{3.0, 2.0}, TiePenalized)
	if outcome != Win || winner != 0 {
		t.Errorf("outcome = %v winner = %d, want Win 0", outcome, winner)
	}
}

// TestOutcomeOpponentWins: a strictly higher opponent is a loss.
func TestOutcomeOpponentWins(t *testing.T) {
	outcome, winner := DecideOutcome([]float64{1.0, 2.5, 2.0}, TiePenalized)
	if outcome != Loss || winner != 1 {
		t.Errorf("outcome = %v winner = %d, want Loss 1", outcome, winner)
	}
}

// TestOutcomeTieNeutral: a shared first place is a draw only for a tied agent.
func TestOutcomeTieNeutral(t *testing.T) {
	outcome, winner := DecideOutcome([]float64{3.0, 3.0, 1.0}, TieNeutral)
	if outcome != Draw || winner != -1 {
		t.Errorf("tied agent: outcome = %v winner = %d, want Draw -1", outcome, winner)
	}

	// Opponents tie for first, agent is behind: still a loss.
	outcome, _ = DecideOutcome([]float64{1.0, 3.0, 3.0}, TieNeutral)
	if outcome != Loss {
		t.Errorf("agent behind tied leaders: outcome = %v, want Loss", outcome)
	}
}

// TestOutcomeTieBelowFirst: ties below first place do not affect the winner.
func TestOutcomeTieBelowFirst(t *testing.T) {
	outcome, winner := DecideOutcome([]float64{4.0, 2.0, 2.0}, TiePenalized)
	if outcome != Win || winner != 0 {
		t.Errorf("outcome = %v winner = %d, want Win 0", outcome, winner)
	}
}
