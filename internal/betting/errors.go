package betting

import (
	"fmt"

	"github.com/pkg/errors"
)

// errBettingf builds a protocol-invariant failure: an illegal action
// given the current betting state. The ledger's transition handler turns
// these into a Failure(reason) snapshot rather than retrying.
func errBettingf(format string, args ...interface{}) error {
	return errors.New(fmt.Sprintf(format, args...))
}
