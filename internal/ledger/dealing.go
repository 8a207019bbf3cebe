package ledger

import (
	"fmt"

	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
)

// recordBlindingContribution verifies and folds in one committee member's
// Phase A contribution for a hole position: alpha_j = g*delta_j,
// beta_j = (agg_key + player_pk)*delta_j. The Chaum-Pedersen proof binds
// alpha_j and beta_j to the same delta_j under bases g and (agg_key+pk).
func (d *DealingSubSnapshot) recordBlindingContribution(key HoleKey, aggPlusPlayerKey ocpcrypto.Point, c BlindingContribution) error {
	if _, ok := d.PlayerCiphertexts[key]; ok {
		return fmt.Errorf("ledger: player ciphertext for %+v already combined, too late for blinding contribution", key)
	}
	for _, existing := range d.PlayerBlindingContribs[key] {
		if existing.ShufflerKey == c.ShufflerKey {
			return fmt.Errorf("ledger: shuffler %x already submitted a blinding contribution for %+v", existing.ShufflerKey.Bytes(), key)
		}
	}
	// proof attests alpha_j = g*delta_j and beta_j = aggPlusPlayerKey*delta_j
	// for the same delta_j.
	ok, err := ocpcrypto.ChaumPedersenVerify(c.Alpha, aggPlusPlayerKey, c.Beta, c.Proof)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ledger: blinding contribution proof failed for %+v", key)
	}
	d.PlayerBlindingContribs[key] = append(d.PlayerBlindingContribs[key], c)
	return nil
}

// combineBlindingContributions folds every present contribution for key
// into the committee-combined ciphertext once n-of-n have arrived. It is
// idempotent: callers should check for an existing entry first.
func (d *DealingSubSnapshot) combineBlindingContributions(key HoleKey, c1, c2 ocpcrypto.Point, nShufflers int) (bool, error) {
	contribs := d.PlayerBlindingContribs[key]
	if len(contribs) < nShufflers {
		return false, nil
	}
	alphaSum := ocpcrypto.PointZero()
	betaSum := ocpcrypto.PointZero()
	for _, c := range contribs {
		alphaSum = ocpcrypto.PointAdd(alphaSum, c.Alpha)
		betaSum = ocpcrypto.PointAdd(betaSum, c.Beta)
	}
	d.PlayerCiphertexts[key] = PlayerCiphertext{
		A: ocpcrypto.PointAdd(c1, alphaSum),
		B: ocpcrypto.PointAdd(c2, betaSum),
		D: alphaSum,
	}
	return true, nil
}

// recordUnblindingShare verifies and folds in committee member j's Phase B
// share mu_j = A*x_j, proved equal-discrete-log to the member's public key
// under bases g and A.
func (d *DealingSubSnapshot) recordUnblindingShare(key HoleKey, shufflerPub ocpcrypto.Point, s UnblindingShare) error {
	if _, ok := d.PlayerUnblindingCombined[key]; ok {
		return fmt.Errorf("ledger: unblinding for %+v already combined", key)
	}
	combined, ok := d.PlayerCiphertexts[key]
	if !ok {
		return fmt.Errorf("ledger: no combined ciphertext yet for %+v, blinding phase incomplete", key)
	}
	for _, existing := range d.PlayerUnblindingShares[key] {
		if existing.ShufflerKey == s.ShufflerKey {
			return fmt.Errorf("ledger: shuffler %x already submitted an unblinding share for %+v", existing.ShufflerKey.Bytes(), key)
		}
	}
	// proof attests shufflerPub = g*x_j and mu_j = combined.A*x_j for the
	// same x_j.
	ok2, err := ocpcrypto.ChaumPedersenVerify(shufflerPub, combined.A, s.Mu, s.Proof)
	if err != nil {
		return err
	}
	if !ok2 {
		return fmt.Errorf("ledger: unblinding share proof failed for %+v", key)
	}
	d.PlayerUnblindingShares[key] = append(d.PlayerUnblindingShares[key], s)
	return nil
}

// combineUnblindingShares folds committee member shares into mu = A*Sum(x_j)
// once all n are present. Unlike the community case, the ledger cannot
// recover the card value itself: g*m = B - mu - D*player_secret needs the
// player's own secret key, which the ledger never holds. Recovery happens
// off-ledger and is only checked back in at showdown.
func (d *DealingSubSnapshot) combineUnblindingShares(key HoleKey, nShufflers int) (bool, error) {
	shares := d.PlayerUnblindingShares[key]
	if len(shares) < nShufflers {
		return false, nil
	}
	if _, ok := d.PlayerCiphertexts[key]; !ok {
		return false, fmt.Errorf("ledger: no combined ciphertext for %+v", key)
	}
	muSum := ocpcrypto.PointZero()
	for _, s := range shares {
		muSum = ocpcrypto.PointAdd(muSum, s.Mu)
	}
	d.PlayerUnblindingCombined[key] = muSum
	return true, nil
}

// recordCommunityShare verifies and folds in committee member j's
// contribution toward decrypting community card boardIndex: share_j = c1*x_j.
func (d *DealingSubSnapshot) recordCommunityShare(boardIndex int, shufflerPub ocpcrypto.Point, c1 ocpcrypto.Point, s CommunityShare) error {
	if _, ok := d.CommunityCards[boardIndex]; ok {
		return fmt.Errorf("ledger: community card %d already revealed", boardIndex)
	}
	for _, existing := range d.CommunityDecryptionShares[boardIndex] {
		if existing.ShufflerKey == s.ShufflerKey {
			return fmt.Errorf("ledger: shuffler %x already submitted a community share for board index %d", existing.ShufflerKey.Bytes(), boardIndex)
		}
	}
	// proof attests shufflerPub = g*x_j and share_j = c1*x_j for the same x_j.
	ok, err := ocpcrypto.ChaumPedersenVerify(shufflerPub, c1, s.Share, s.Proof)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ledger: community share proof failed for board index %d", boardIndex)
	}
	d.CommunityDecryptionShares[boardIndex] = append(d.CommunityDecryptionShares[boardIndex], s)
	return nil
}

// combineCommunityShares recovers a board card once every committee
// member's share for boardIndex has arrived: m = CardValue(c2 - Sum(share_j)).
func (d *DealingSubSnapshot) combineCommunityShares(boardIndex int, c2 ocpcrypto.Point, nShufflers int) (uint8, bool, error) {
	shares := d.CommunityDecryptionShares[boardIndex]
	if len(shares) < nShufflers {
		return 0, false, nil
	}
	sum := ocpcrypto.PointZero()
	for _, s := range shares {
		sum = ocpcrypto.PointAdd(sum, s.Share)
	}
	gm := ocpcrypto.PointSub(c2, sum)
	m, err := ocpcrypto.CardValue(gm)
	if err != nil {
		return 0, false, err
	}
	d.CommunityCards[boardIndex] = m
	return m, true, nil
}

// lookupDeckCiphertext finds the deck position assigned to a hole or
// board destination, used to pull out c1/c2 before combining shares.
func lookupDeckCiphertext(plan CardPlan, deck Deck, want Destination) (ocpcrypto.ElGamalCiphertext, bool) {
	for pos, dest := range plan.Assignments {
		if dest.Kind != want.Kind {
			continue
		}
		switch dest.Kind {
		case DestHole:
			if dest.Seat == want.Seat && dest.HoleIndex == want.HoleIndex {
				return deck[pos], true
			}
		case DestBoard:
			if dest.BoardIndex == want.BoardIndex {
				return deck[pos], true
			}
		}
	}
	return ocpcrypto.ElGamalCiphertext{}, false
}
