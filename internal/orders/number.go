package orders

import (
	"time"

	"github.com/google/uuid"
)

// numberAlphabet drops 0/O and 1/I so numbers survive being read aloud.
const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const numberSuffixLen = 6

// NewOrderNumber returns a human-facing number of the form PD-YYYYMMDD-XXXXXX.
// Uniqueness is enforced by the orders table; callers retry on collision.
func NewOrderNumber(now time.Time) string {
	id := uuid.New()
	suffix := make([]byte, numberSuffixLen)
	for i := range suffix {
		suffix[i] = numberAlphabet[int(id[i])%len(numberAlphabet)]
	}
	return "PD-" + now.UTC().Format("20060102") + "-" + string(suffix)
}
