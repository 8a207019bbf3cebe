package coordinator

import (
	"context"
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/wu-s-john/pokerledger/internal/ledger"
)

// MultiTransport fans a single broadcast out to every listed transport
// concurrently, so one slow subscriber (a websocket write, a shuffler's
// HTTP callback) never delays the others.
type MultiTransport struct {
	Transports []Transport
}

func (m MultiTransport) Broadcast(snapshot *ledger.TableSnapshot) {
	var g errgroup.Group
	for _, t := range m.Transports {
		t := t
		g.Go(func() error {
			t.Broadcast(snapshot)
			return nil
		})
	}
	_ = g.Wait()
}

// RunAll starts every coordinator's apply loop under a shared errgroup
// and returns once ctx is cancelled or any one of them returns an error.
func RunAll(ctx context.Context, coordinators ...*GameCoordinator) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range coordinators {
		c := c
		g.Go(func() error { return c.Run(ctx) })
	}
	return g.Wait()
}

// DiffSnapshots reports whether two snapshots' canonical views match and,
// if not, a human-readable diff. It exists for replay-equivalence checks:
// two coordinators fed the same message sequence (possibly with
// different hashers) must agree on every field canonicalization binds,
// even when their raw StateHash bytes differ by hasher choice.
func DiffSnapshots(a, b *ledger.TableSnapshot) (equal bool, diff string) {
	var av, bv map[string]any
	if err := unmarshalCanonical(a, &av); err != nil {
		return false, err.Error()
	}
	if err := unmarshalCanonical(b, &bv); err != nil {
		return false, err.Error()
	}
	d := cmp.Diff(av, bv)
	return d == "", d
}

func unmarshalCanonical(s *ledger.TableSnapshot, out *map[string]any) error {
	return json.Unmarshal(s.CanonicalBytes(), out)
}
