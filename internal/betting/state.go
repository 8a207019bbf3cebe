package betting

// State is the full mutable betting position for one street onward.
// Ledger snapshots hold one State inside their Betting sub-snapshot and
// clone it before calling Apply, so that a rejected action leaves the
// prior snapshot's State untouched.
type State struct {
	Cfg    HandConfig
	Street Street

	// SeatOrder lists seats clockwise, starting from whichever seat the
	// caller put first (the ledger starts just after the button); it never
	// changes once a hand starts.
	SeatOrder []int
	Players   map[int]*PlayerState

	CurrentBetToMatch   uint64
	LastFullRaiseAmount uint64
	LastAggressor       int // -1 if nobody has opened the action this street
	VoluntaryBetOpened  bool

	Pots []Pot

	PendingToMatch    map[int]bool
	HasActedThisRound map[int]bool

	BettingLockedAllIn bool

	ActionLog []PlayerActionEvent
}

// Clone deep-copies mutable state so Apply can be tried against a
// throwaway copy without disturbing the ledger's prior snapshot.
func (s *State) Clone() *State {
	out := &State{
		Cfg:                 s.Cfg,
		Street:              s.Street,
		SeatOrder:           append([]int(nil), s.SeatOrder...),
		Players:             make(map[int]*PlayerState, len(s.Players)),
		CurrentBetToMatch:   s.CurrentBetToMatch,
		LastFullRaiseAmount: s.LastFullRaiseAmount,
		LastAggressor:       s.LastAggressor,
		VoluntaryBetOpened:  s.VoluntaryBetOpened,
		Pots:                clonePots(s.Pots),
		PendingToMatch:      cloneIntBoolMap(s.PendingToMatch),
		HasActedThisRound:   cloneIntBoolMap(s.HasActedThisRound),
		BettingLockedAllIn:  s.BettingLockedAllIn,
		ActionLog:           append([]PlayerActionEvent(nil), s.ActionLog...),
	}
	for seat, p := range s.Players {
		cp := *p
		out.Players[seat] = &cp
	}
	return out
}

func clonePots(in []Pot) []Pot {
	out := make([]Pot, len(in))
	for i, p := range in {
		out[i] = Pot{Amount: p.Amount, EligibleSeats: append([]int(nil), p.EligibleSeats...)}
	}
	return out
}

func cloneIntBoolMap(in map[int]bool) map[int]bool {
	out := make(map[int]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// NewPreflopState builds the initial betting position for a hand:
// blinds posted, pending-to-match computed, and the button excluded
// from the preflop pending set per this system's specified convention.
func NewPreflopState(cfg HandConfig, seatOrder []int, startingStacks map[int]uint64) (*State, error) {
	s := &State{
		Cfg:               cfg,
		Street:            Preflop,
		SeatOrder:         append([]int(nil), seatOrder...),
		Players:           make(map[int]*PlayerState, len(seatOrder)),
		LastAggressor:     -1,
		PendingToMatch:    make(map[int]bool, len(seatOrder)),
		HasActedThisRound: make(map[int]bool, len(seatOrder)),
	}
	for _, seat := range seatOrder {
		s.Players[seat] = &PlayerState{Seat: seat, StartingStack: startingStacks[seat], Status: Active}
		s.HasActedThisRound[seat] = false
	}

	postBlind := func(seat int, amount uint64) error {
		p, ok := s.Players[seat]
		if !ok {
			return errBettingf("betting: blind seat %d is not seated", seat)
		}
		commit := amount
		if commit > p.StartingStack {
			commit = p.StartingStack
		}
		p.CommittedTotal += commit
		p.CommittedThisRound += commit
		if p.CommittedTotal == p.StartingStack {
			p.Status = AllIn
		}
		return nil
	}
	if err := postBlind(cfg.SmallBlindSeat, cfg.SmallBlind); err != nil {
		return nil, err
	}
	if err := postBlind(cfg.BigBlindSeat, cfg.BigBlind); err != nil {
		return nil, err
	}

	s.CurrentBetToMatch = cfg.BigBlind
	s.LastFullRaiseAmount = cfg.BigBlind
	s.VoluntaryBetOpened = false

	for _, seat := range seatOrder {
		if seat == cfg.ButtonSeat {
			continue // button never owes a preflop check-in, even holding chips behind
		}
		p := s.Players[seat]
		if p.Status != Active {
			continue
		}
		if p.CommittedThisRound < s.CurrentBetToMatch {
			s.PendingToMatch[seat] = true
		}
	}
	s.refreshPots()
	return s, nil
}
