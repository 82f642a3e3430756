package scoring

import (
	"math"
	"strconv"
)

// Published score band.
const (
	MinTotal = 55
	MaxTotal = 95
)

const (
	adjustmentTag  = "adjustment"
	adjustmentSpan = 5 // values -2..+2
)

// ComposeTotal sums components, clamps into [MinTotal,MaxTotal], applies a
// deterministic adjustment in [-2,+2] seeded by the sum, and clamps again.
func ComposeTotal(c Components) int {
	sum := clamp(c.Sum())
	adj := int(math.Floor(Unit(strconv.Itoa(sum)+adjustmentTag)*adjustmentSpan)) - adjustmentSpan/2
	return clamp(sum + adj)
}

func clamp(v int) int {
	switch {
	case v < MinTotal:
		return MinTotal
	case v > MaxTotal:
		return MaxTotal
	default:
		return v
	}
}
