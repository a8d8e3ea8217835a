// Package ordercode generates human-readable, globally unique order codes.
// Uniqueness is still enforced by the orders table constraint; the generator
// only makes collisions vanishingly rare.
package ordercode

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Prefix identifies codes minted by this service.
const Prefix = "ORD-"

// Generator produces order codes. Services take this as a dependency so tests
// can pin deterministic codes.
type Generator func() string

// New returns a ULID-backed order code, e.g. ORD-01J8ZQ4T2N9GWK5XH0V3YBDMSE.
func New() string {
	return Prefix + ulid.Make().String()
}

// IsValid reports whether the value looks like a code minted by New.
func IsValid(code string) bool {
	if !strings.HasPrefix(code, Prefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.TrimPrefix(code, Prefix))
	return err == nil
}
