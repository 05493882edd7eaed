package util

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

const (
	OrderReferencePrefix   = "ORD"
	PaymentReferencePrefix = "PAY"
)

// GenerateReferenceWithPrefix returns "<prefix>-<ULID>". ULIDs carry 80 bits
// of randomness per millisecond and sort by creation time.
func GenerateReferenceWithPrefix(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, ulid.Make().String())
}
