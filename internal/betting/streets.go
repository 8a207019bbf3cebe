package betting

// NewStreetState advances prev onto the next street: per-round fields
// reset, cumulative commitments and seat status carry forward. Callers
// invoke this when Apply returns a StreetEndKind transition.
func NewStreetState(prev *State, street Street) *State {
	s := prev.Clone()
	s.Street = street
	s.CurrentBetToMatch = 0
	s.LastFullRaiseAmount = s.Cfg.BigBlind
	s.LastAggressor = -1
	s.VoluntaryBetOpened = false
	s.PendingToMatch = make(map[int]bool, len(s.SeatOrder))
	s.HasActedThisRound = make(map[int]bool, len(s.SeatOrder))
	for _, seat := range s.SeatOrder {
		p := s.Players[seat]
		p.CommittedThisRound = 0
		s.HasActedThisRound[seat] = false
	}
	s.refreshPots()
	return s
}

// ActiveSeatCount reports how many seats can still voluntarily act
// (neither folded nor all-in nor sitting out); used to detect a hand
// that should skip straight to showdown because betting is moot.
func (s *State) ActiveSeatCount() int {
	n := 0
	for _, seat := range s.SeatOrder {
		if s.Players[seat].Status == Active {
			n++
		}
	}
	return n
}
