package game

// MaxPointsFor is the score threshold for a given population:
// max(1, n-1) * 10.
func MaxPointsFor(playerCount int) int {
	n := playerCount - 1
	if n < 1 {
		n = 1
	}
	return n * PointsPerSeat
}

// GameWinners returns the session ids whose points have reached the
// threshold. Zero ids means the match continues, one means a winner,
// two or more means a tie that must be settled by deathmatch.
func (s *State) GameWinners() []string {
	var out []string
	for id, p := range s.players {
		if p.Points >= s.flags.MaxPoints {
			out = append(out, id)
		}
	}
	return out
}
