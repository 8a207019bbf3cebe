package betting

// Apply folds one (seat, action) into the state. It mutates s in place
// and returns the resulting Transition. Callers
// that need rollback-on-failure (the ledger's transition handler) should
// call s.Clone() first and only adopt the clone once Apply succeeds.
func (s *State) Apply(seat int, action Action) (Transition, error) {
	if s.BettingLockedAllIn {
		return Transition{}, errBettingf("betting: street is locked all-in, no further actions accepted")
	}
	p, ok := s.Players[seat]
	if !ok {
		return Transition{}, errBettingf("betting: seat %d is not seated", seat)
	}
	if p.Status != Active {
		return Transition{}, errBettingf("betting: seat %d is not active (status=%v)", seat, p.Status)
	}
	if !s.owesAction(seat) {
		return Transition{}, errBettingf("betting: it is not seat %d's turn to act", seat)
	}

	var (
		ev  PlayerActionEvent
		err error
	)
	switch action.Kind {
	case Fold:
		ev, err = s.applyFold(seat)
	case Check:
		ev, err = s.applyCheck(seat)
	case Call:
		ev, err = s.applyCall(seat)
	case BetTo:
		ev, err = s.applyOpenOrRaise(seat, action.Amount, BetTo)
	case RaiseTo:
		ev, err = s.applyOpenOrRaise(seat, action.Amount, RaiseTo)
	case AllInAction:
		total := p.CommittedThisRound + p.StackRemaining()
		ev, err = s.applyOpenOrRaise(seat, total, AllInAction)
	default:
		err = errBettingf("betting: unknown action kind %v", action.Kind)
	}
	if err != nil {
		return Transition{}, err
	}

	s.ActionLog = append(s.ActionLog, ev)
	s.refreshPots()
	return s.resolveTransition(seat, []PlayerActionEvent{ev}), nil
}

// owesAction reports whether seat still needs to act this round: it is
// in the pending-to-match set, or the street is unopened and the seat
// has not yet acted, or it is preflop and seat holds the unexercised big
// blind option.
func (s *State) owesAction(seat int) bool {
	p, ok := s.Players[seat]
	if !ok || p.Status != Active {
		return false
	}
	if s.PendingToMatch[seat] {
		return true
	}
	if s.CurrentBetToMatch == 0 {
		return !s.HasActedThisRound[seat]
	}
	if !s.HasActedThisRound[seat] && p.CommittedThisRound < s.CurrentBetToMatch {
		// Catches the button's preflop call/raise obligation even though
		// it is deliberately kept out of PendingToMatch.
		return true
	}
	if s.Street == Preflop && seat == s.Cfg.BigBlindSeat && !s.HasActedThisRound[seat] && s.allOthersSettled(seat) {
		return true
	}
	return false
}

// allOthersSettled reports whether every other seat still in the hand
// has both acted this round and matched CurrentBetToMatch (or gone
// all-in short of it). Used for the preflop big blind option, which
// only opens once action has actually come back around.
func (s *State) allOthersSettled(seat int) bool {
	for _, other := range s.SeatOrder {
		if other == seat {
			continue
		}
		p := s.Players[other]
		if p.Status == Folded || p.Status == SittingOut || p.Status == AllIn {
			continue
		}
		if !s.HasActedThisRound[other] || p.CommittedThisRound < s.CurrentBetToMatch {
			return false
		}
	}
	return true
}

func (s *State) toCall(seat int) uint64 {
	p := s.Players[seat]
	if p.CommittedThisRound >= s.CurrentBetToMatch {
		return 0
	}
	return s.CurrentBetToMatch - p.CommittedThisRound
}

func (s *State) applyFold(seat int) (PlayerActionEvent, error) {
	p := s.Players[seat]
	p.Status = Folded
	delete(s.PendingToMatch, seat)
	s.HasActedThisRound[seat] = true
	return PlayerActionEvent{Seat: seat, Action: Action{Kind: Fold}, CommittedTotal: p.CommittedThisRound}, nil
}

func (s *State) applyCheck(seat int) (PlayerActionEvent, error) {
	if s.toCall(seat) != 0 {
		return PlayerActionEvent{}, errBettingf("betting: seat %d cannot check facing a bet", seat)
	}
	p := s.Players[seat]
	delete(s.PendingToMatch, seat)
	s.HasActedThisRound[seat] = true
	return PlayerActionEvent{Seat: seat, Action: Action{Kind: Check}, CommittedTotal: p.CommittedThisRound}, nil
}

func (s *State) applyCall(seat int) (PlayerActionEvent, error) {
	want := s.toCall(seat)
	if want == 0 {
		return PlayerActionEvent{}, errBettingf("betting: seat %d has nothing to call", seat)
	}
	p := s.Players[seat]
	available := p.StackRemaining()
	callAmount := want
	fullCall := true
	if callAmount >= available {
		callAmount = available
		fullCall = callAmount == want
	}
	p.CommittedThisRound += callAmount
	p.CommittedTotal += callAmount
	if p.CommittedTotal == p.StartingStack {
		p.Status = AllIn
	}
	delete(s.PendingToMatch, seat)
	s.HasActedThisRound[seat] = true
	return PlayerActionEvent{
		Seat:           seat,
		Action:         Action{Kind: Call, Amount: p.CommittedThisRound},
		CallAmount:     callAmount,
		FullCall:       fullCall,
		CommittedTotal: p.CommittedThisRound,
	}, nil
}

// applyOpenOrRaise handles BetTo, RaiseTo, and AllInAction, since all
// three set a new desired CommittedThisRound for the seat; they differ
// only in which legality gate applies.
func (s *State) applyOpenOrRaise(seat int, n uint64, kind ActionKind) (PlayerActionEvent, error) {
	p := s.Players[seat]
	if n <= p.CommittedThisRound {
		return PlayerActionEvent{}, errBettingf("betting: seat %d amount %d does not increase its commitment", seat, n)
	}
	delta := n - p.CommittedThisRound
	available := p.StackRemaining()
	if delta > available {
		return PlayerActionEvent{}, errBettingf("betting: seat %d cannot commit %d, only %d remaining", seat, delta, available)
	}
	isAllIn := delta == available

	var fullRaise bool
	switch {
	case s.CurrentBetToMatch == 0:
		// Opening bet: BetTo/AllInAction both land here; RaiseTo is illegal
		// with nothing open to raise.
		if kind == RaiseTo {
			return PlayerActionEvent{}, errBettingf("betting: seat %d cannot raise, no open bet to raise", seat)
		}
		if kind == BetTo && n < s.Cfg.BigBlind && !isAllIn {
			return PlayerActionEvent{}, errBettingf("betting: bet %d is below the big blind %d", n, s.Cfg.BigBlind)
		}
		fullRaise = true
	default:
		// Raising over an existing bet (voluntary or blind-seeded):
		// BetTo is illegal once a bet is already open.
		if kind == BetTo {
			return PlayerActionEvent{}, errBettingf("betting: seat %d cannot open a bet, one is already open", seat)
		}
		minLegal := s.CurrentBetToMatch + s.LastFullRaiseAmount
		fullRaise = n >= minLegal
		if !fullRaise && !isAllIn {
			return PlayerActionEvent{}, errBettingf("betting: raise to %d is below minimum legal raise %d", n, minLegal)
		}
	}

	p.CommittedThisRound = n
	p.CommittedTotal += delta
	if isAllIn {
		p.Status = AllIn
	}

	raiseIncrement := n - s.CurrentBetToMatch
	s.CurrentBetToMatch = n
	s.LastAggressor = seat
	s.VoluntaryBetOpened = true
	if fullRaise {
		s.LastFullRaiseAmount = raiseIncrement
	}

	// Any chip-moving bet/raise changes who owes money, regardless of
	// whether it reopens action.
	for _, other := range s.SeatOrder {
		if other == seat {
			continue
		}
		op := s.Players[other]
		if op.Status != Active {
			delete(s.PendingToMatch, other)
			continue
		}
		if op.CommittedThisRound < s.CurrentBetToMatch {
			s.PendingToMatch[other] = true
		} else {
			delete(s.PendingToMatch, other)
		}
	}
	// A full raise reopens action: every other active seat must act again.
	if fullRaise {
		for _, other := range s.SeatOrder {
			if other == seat {
				continue
			}
			if s.Players[other].Status == Active {
				s.HasActedThisRound[other] = false
			}
		}
	}
	delete(s.PendingToMatch, seat)
	s.HasActedThisRound[seat] = true

	return PlayerActionEvent{
		Seat:           seat,
		Action:         Action{Kind: kind, Amount: n},
		FullRaise:      fullRaise,
		CommittedTotal: p.CommittedThisRound,
	}, nil
}

// resolveTransition decides, after mutating state for one action,
// whether the hand ended by fold, the street ended, or action continues.
func (s *State) resolveTransition(actingSeat int, events []PlayerActionEvent) Transition {
	notFolded := 0
	var lastStanding int
	for _, seat := range s.SeatOrder {
		if s.Players[seat].Status != Folded {
			notFolded++
			lastStanding = seat
		}
	}
	if notFolded <= 1 {
		return Transition{Kind: HandEndKind, Events: events, Winner: lastStanding, Pots: s.Pots}
	}

	activeCount := 0
	for _, seat := range s.SeatOrder {
		if s.Players[seat].Status == Active {
			activeCount++
		}
	}
	if activeCount <= 1 && len(s.PendingToMatch) == 0 {
		s.BettingLockedAllIn = true
		return Transition{Kind: StreetEndKind, Events: events, EndedStreet: s.Street}
	}

	openedStreetEnds := s.CurrentBetToMatch > 0 && len(s.PendingToMatch) == 0
	unopenedStreetEnds := s.CurrentBetToMatch == 0 && s.allActiveHaveActed()

	if openedStreetEnds && s.Street == Preflop {
		bb := s.Cfg.BigBlindSeat
		if s.Players[bb].Status == Active && !s.HasActedThisRound[bb] {
			return Transition{Kind: Continued, Events: events, NextToAct: bb}
		}
	}

	if openedStreetEnds || unopenedStreetEnds {
		return Transition{Kind: StreetEndKind, Events: events, EndedStreet: s.Street}
	}

	return Transition{Kind: Continued, Events: events, NextToAct: s.findNextToAct(actingSeat)}
}

func (s *State) allActiveHaveActed() bool {
	for _, seat := range s.SeatOrder {
		if s.Players[seat].Status == Active && !s.HasActedThisRound[seat] {
			return false
		}
	}
	return true
}

// findNextToAct walks the seat order clockwise from the acting seat and
// returns the first seat that still owes an action.
func (s *State) findNextToAct(from int) int {
	n := len(s.SeatOrder)
	start := 0
	for i, seat := range s.SeatOrder {
		if seat == from {
			start = i
			break
		}
	}
	for i := 1; i <= n; i++ {
		seat := s.SeatOrder[(start+i)%n]
		if s.owesAction(seat) {
			return seat
		}
	}
	return -1
}
