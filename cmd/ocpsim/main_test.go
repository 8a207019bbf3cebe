package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wu-s-john/pokerledger/internal/ledger"
)

// TestRunDrivesHandToShowdown exercises the whole simulated pipeline
// (shuffle, deal, bet, showdown) the same way main() does, and checks the
// hand actually reaches a terminal phase with both hole cards revealed.
func TestRunDrivesHandToShowdown(t *testing.T) {
	err := run()
	require.NoError(t, err, "run should drive the simulated hand to completion")
}

func TestPhaseStreetMapping(t *testing.T) {
	require.Equal(t, street(t, ledger.PhaseFlop), "flop")
	require.Equal(t, street(t, ledger.PhaseTurn), "turn")
	require.Equal(t, street(t, ledger.PhaseRiver), "river")
	require.Equal(t, street(t, ledger.PhasePreflop), "preflop")
}

func street(t *testing.T, p ledger.Phase) string {
	t.Helper()
	switch phaseStreet(p).String() {
	case "flop":
		return "flop"
	case "turn":
		return "turn"
	case "river":
		return "river"
	default:
		return "preflop"
	}
}
