package relay

import (
	"fmt"

	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/utils"
)

// Budget scales the timeout of a forward by the number of hops remaining
// after a node, so the whole chain fails no later than a bounded deadline.
type Budget struct {
	// Hops is the number of forwards remaining including this one
	Hops int
	// OverheadMs is the processing slack granted to every hop
	OverheadMs int64
}

// NewBudget returns the budget of a node followed by internalHops relays.
// The overhead is only granted when at least one relay follows, falling back
// to the default when overheadMs is zero.
func NewBudget(internalHops int, overheadMs int64) (Budget, error) {
	if internalHops < 0 {
		return Budget{}, fmt.Errorf("internal hops must be >= 0, got %d", internalHops)
	}
	if overheadMs < 0 {
		return Budget{}, fmt.Errorf("hop overhead must be >= 0, got %d", overheadMs)
	}
	b := Budget{Hops: internalHops + 1}
	if internalHops > 0 {
		b.OverheadMs = utils.DefaultIfZero(overheadMs, constants.DefaultHopOverheadMs)
	}
	return b, nil
}

// RequestTimeout returns the request timeout of a forward carrying a request
// with the given connect and request timeouts. Each remaining hop may spend up
// to connect+request+overhead before its own forward returns.
func (b Budget) RequestTimeout(connectMs int64, requestMs int64) int64 {
	return int64(b.Hops) * (connectMs + requestMs + b.OverheadMs)
}

// Deadline returns the worst case duration of a forward, connect included.
func (b Budget) Deadline(connectMs int64, requestMs int64) int64 {
	return connectMs + b.RequestTimeout(connectMs, requestMs)
}
