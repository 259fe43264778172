package accounts

import (
	"fmt"
	"math/rand/v2"
)

// NumberSource supplies candidate numbers to the reservation loop.
type NumberSource interface {
	Number() string
}

// Generator produces candidate account numbers in the CQ\d{9} format.
// Candidates are random rather than sequential so no global counter becomes
// a contention point; uniqueness is not promised here, it comes from the
// unique index the reservation insert runs against.
type Generator struct{}

func (Generator) Number() string {
	return fmt.Sprintf("CQ%09d", rand.IntN(1_000_000_000))
}
