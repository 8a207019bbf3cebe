package ledger

import (
	"fmt"

	"github.com/wu-s-john/pokerledger/internal/betting"
	"github.com/wu-s-john/pokerledger/internal/ocpcrypto"
)

type ActorKind int

const (
	ActorShuffler ActorKind = iota
	ActorPlayer
)

// Actor tags who sent an envelope, mirroring the wire-level
// ShufflerActor/PlayerActor union.
type Actor struct {
	Kind       ActorKind
	ShufflerID string // valid when Kind == ActorShuffler
	Seat       int    // valid when Kind == ActorPlayer
	PlayerID   string // valid when Kind == ActorPlayer
}

func (a Actor) bytes() []byte {
	switch a.Kind {
	case ActorShuffler:
		return []byte("shuffler:" + a.ShufflerID)
	case ActorPlayer:
		return []byte(fmt.Sprintf("player:%d:%s", a.Seat, a.PlayerID))
	default:
		return []byte("unknown")
	}
}

type MessageKind int

const (
	MsgShuffleStep MessageKind = iota
	MsgBlindingContribution
	MsgPartialUnblindingShare
	MsgPlayerBettingAction
	MsgShowdownReveal
)

type DealTargetKind int

const (
	DealTargetHole DealTargetKind = iota
	DealTargetCommunity
)

// DealTarget addresses the decryption state a BlindingContribution or
// PartialUnblindingShare message applies to: either a (seat, hole_index)
// pair or a community board index.
type DealTarget struct {
	Kind       DealTargetKind
	Hole       HoleKey
	BoardIndex int
}

type ShuffleStepPayload struct {
	ProofBytes []byte
	OutputDeck Deck
}

// BlindingContributionPayload is only ever submitted for a hole target:
// community cards skip Phase A entirely (§4.6 has no blinding phase).
type BlindingContributionPayload struct {
	Target DealTarget
	Alpha  ocpcrypto.Point
	Beta   ocpcrypto.Point
	Proof  ocpcrypto.ChaumPedersenProof
}

// PartialUnblindingSharePayload serves both Phase B (hole target, mu_j =
// A*x_j) and the community share (c1*x_j); Target.Kind picks which.
type PartialUnblindingSharePayload struct {
	Target DealTarget
	Value  ocpcrypto.Point
	Proof  ocpcrypto.ChaumPedersenProof
}

type PlayerBettingActionPayload struct {
	Street betting.Street
	Action betting.Action
}

// ShowdownRevealPayload is a player's self-disclosure of both hole card
// values at showdown, each backed by a proof of knowledge of the
// player's secret key tying the claimed card to the already-recorded
// player ciphertext and combined unblinding share.
type ShowdownRevealPayload struct {
	Hole       [2]uint8
	HoleProofs [2]ocpcrypto.ChaumPedersenProof
}

// AnyMessageEnvelope is the signed, actor-tagged wire message folded
// into the ledger by apply_transition. Exactly one payload field is
// populated, matching Kind.
type AnyMessageEnvelope struct {
	GameID    int64
	HandID    int64
	Actor     Actor
	Nonce     uint64
	PublicKey ocpcrypto.Point
	Kind      MessageKind

	ShuffleStep     *ShuffleStepPayload
	BlindingContrib *BlindingContributionPayload
	UnblindingShare *PartialUnblindingSharePayload
	BettingAction   *PlayerBettingActionPayload
	ShowdownReveal  *ShowdownRevealPayload

	Signature  ocpcrypto.Signature
	Transcript []byte
}

const ledgerMsgDomain = "ledger/msg"

// canonicalPayloadBytes renders the message's payload deterministically
// for both signing and hashing. It is intentionally terse: points and
// scalars already have canonical fixed-size encodings, so concatenation
// is unambiguous without a length-prefixed framing for those leaves (the
// outer transcript still length-prefixes each top-level field).
func (e *AnyMessageEnvelope) canonicalPayloadBytes() ([]byte, error) {
	switch e.Kind {
	case MsgShuffleStep:
		if e.ShuffleStep == nil {
			return nil, fmt.Errorf("ledger: shuffle step payload missing")
		}
		out := append([]byte(nil), e.ShuffleStep.ProofBytes...)
		for _, ct := range e.ShuffleStep.OutputDeck {
			out = append(out, ct.C1.Bytes()...)
			out = append(out, ct.C2.Bytes()...)
		}
		return out, nil
	case MsgBlindingContribution:
		if e.BlindingContrib == nil {
			return nil, fmt.Errorf("ledger: blinding contribution payload missing")
		}
		p := e.BlindingContrib
		out := dealTargetBytes(p.Target)
		out = append(out, p.Alpha.Bytes()...)
		out = append(out, p.Beta.Bytes()...)
		out = append(out, ocpcrypto.EncodeChaumPedersenProof(p.Proof)...)
		return out, nil
	case MsgPartialUnblindingShare:
		if e.UnblindingShare == nil {
			return nil, fmt.Errorf("ledger: unblinding share payload missing")
		}
		p := e.UnblindingShare
		out := dealTargetBytes(p.Target)
		out = append(out, p.Value.Bytes()...)
		out = append(out, ocpcrypto.EncodeChaumPedersenProof(p.Proof)...)
		return out, nil
	case MsgPlayerBettingAction:
		if e.BettingAction == nil {
			return nil, fmt.Errorf("ledger: betting action payload missing")
		}
		p := e.BettingAction
		return []byte(fmt.Sprintf("street=%d;kind=%d;amount=%d", p.Street, p.Action.Kind, p.Action.Amount)), nil
	case MsgShowdownReveal:
		if e.ShowdownReveal == nil {
			return nil, fmt.Errorf("ledger: showdown reveal payload missing")
		}
		p := e.ShowdownReveal
		out := []byte{p.Hole[0], p.Hole[1]}
		out = append(out, ocpcrypto.EncodeChaumPedersenProof(p.HoleProofs[0])...)
		out = append(out, ocpcrypto.EncodeChaumPedersenProof(p.HoleProofs[1])...)
		return out, nil
	default:
		return nil, fmt.Errorf("ledger: unknown message kind %d", e.Kind)
	}
}

func dealTargetBytes(t DealTarget) []byte {
	if t.Kind == DealTargetHole {
		return []byte(fmt.Sprintf("hole:%d:%d", t.Hole.Seat, t.Hole.HoleIndex))
	}
	return []byte(fmt.Sprintf("community:%d", t.BoardIndex))
}

// SigningTranscript builds the domain-separated transcript that is
// signed: "ledger/msg" || game_id || hand_id || nonce || actor || public_key
// || canonical(message.value).
func (e *AnyMessageEnvelope) SigningTranscript() ([]byte, error) {
	payload, err := e.canonicalPayloadBytes()
	if err != nil {
		return nil, err
	}
	tr := ocpcrypto.NewTranscript(ledgerMsgDomain)
	if err := tr.AppendMessage("game_id", u64le(uint64(e.GameID))); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("hand_id", u64le(uint64(e.HandID))); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("nonce", u64le(e.Nonce)); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("actor", e.Actor.bytes()); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("public_key", e.PublicKey.Bytes()); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("message", payload); err != nil {
		return nil, err
	}
	return tr.Bytes(), nil
}

func u64le(x uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(x >> (8 * i))
	}
	return b
}

// Sign fills in Transcript and Signature using sk.
func (e *AnyMessageEnvelope) Sign(sk ocpcrypto.Scalar) error {
	tb, err := e.SigningTranscript()
	if err != nil {
		return err
	}
	sig, err := ocpcrypto.Sign(sk, tb)
	if err != nil {
		return err
	}
	e.Transcript = tb
	e.Signature = sig
	return nil
}

// VerifySignature re-derives the transcript from the message fields and
// checks both that it matches the transported Transcript (an auditor's
// shortcut check) and that the signature verifies against PublicKey.
func (e *AnyMessageEnvelope) VerifySignature() (bool, error) {
	tb, err := e.SigningTranscript()
	if err != nil {
		return false, err
	}
	if string(tb) != string(e.Transcript) {
		return false, fmt.Errorf("ledger: transported transcript does not match recomputed transcript")
	}
	return ocpcrypto.Verify(e.PublicKey, e.Transcript, e.Signature)
}
