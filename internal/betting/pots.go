package betting

import "sort"

// refreshPots recomputes s.Pots from every seat's CommittedTotal, using
// the tiered-carve side-pot algorithm: sort distinct positive commitment
// thresholds ascending; at each threshold carve a pot of
// (threshold-prev)*count-of-seats-committed-at-least-threshold, eligible
// to the seats still contributing at that tier; folded seats still
// contribute chips but are not eligible to win them.
func (s *State) refreshPots() {
	type rem struct {
		seat     int
		amount   uint64
		eligible bool
	}
	remaining := make([]rem, 0, len(s.Players))
	for _, seat := range s.SeatOrder {
		p := s.Players[seat]
		if p.CommittedTotal == 0 {
			continue
		}
		remaining = append(remaining, rem{seat: seat, amount: p.CommittedTotal, eligible: p.Status != Folded})
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].seat < remaining[j].seat })

	tiers := make([]Pot, 0, len(remaining))
	for len(remaining) > 0 {
		min := remaining[0].amount
		for _, r := range remaining[1:] {
			if r.amount < min {
				min = r.amount
			}
		}

		eligibleSeats := make([]int, 0, len(remaining))
		for _, r := range remaining {
			if r.eligible {
				eligibleSeats = append(eligibleSeats, r.seat)
			}
		}
		tiers = append(tiers, Pot{Amount: min * uint64(len(remaining)), EligibleSeats: eligibleSeats})

		next := remaining[:0]
		for _, r := range remaining {
			r.amount -= min
			if r.amount > 0 {
				next = append(next, r)
			}
		}
		remaining = next
	}

	merged := make([]Pot, 0, len(tiers))
	for _, t := range tiers {
		if len(merged) > 0 && sameSeats(merged[len(merged)-1].EligibleSeats, t.EligibleSeats) {
			merged[len(merged)-1].Amount += t.Amount
			continue
		}
		merged = append(merged, Pot{Amount: t.Amount, EligibleSeats: append([]int(nil), t.EligibleSeats...)})
	}
	s.Pots = merged
}

func sameSeats(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TotalPotAmount sums every pot tier, used by chip-conservation checks.
func (s *State) TotalPotAmount() uint64 {
	var total uint64
	for _, p := range s.Pots {
		total += p.Amount
	}
	return total
}

// TotalCommitted sums every seat's cumulative commitment.
func (s *State) TotalCommitted() uint64 {
	var total uint64
	for _, p := range s.Players {
		total += p.CommittedTotal
	}
	return total
}
