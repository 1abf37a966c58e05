package domain

// Point-delta bounds for non-privileged requesters. People try to give
// 1000000000000000 points if you let them.
const (
	MinDelta int64 = -2000
	MaxDelta int64 = 2000
)

// ClampPoints bounds a requested delta into [MinDelta, MaxDelta].
// Privileged requesters bypass the clamp entirely; bulk events need deltas
// the band would reject.
func ClampPoints(delta int64, privileged bool) int64 {
	if privileged {
		return delta
	}
	if delta < 0 {
		return max(MinDelta, delta)
	}
	return min(MaxDelta, delta)
}
