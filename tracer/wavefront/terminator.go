package wavefront

// A Terminator decides whether a path stops bouncing. It is invoked by the
// shading stages after the path throughput has been updated for the
// current bounce and may rescale the throughput of surviving paths.
type Terminator interface {
	Terminate(path *PathState) bool
}

type bounceLimit struct {
	maxBounces      uint32
	minBouncesForRR uint32
}

// Create a terminator that stops paths after maxBounces bounces. Once a
// path has bounced minBouncesForRR times it is also subject to russian
// roulette elimination. Setting minBouncesForRR >= maxBounces disables
// russian roulette.
func BounceLimit(maxBounces, minBouncesForRR uint32) Terminator {
	return &bounceLimit{
		maxBounces:      maxBounces,
		minBouncesForRR: minBouncesForRR,
	}
}

func (bl *bounceLimit) Terminate(path *PathState) bool {
	throughput := path.LatestLuminanceSample
	if throughput.IsZero() || path.Depth >= bl.maxBounces {
		return true
	}

	if path.Depth < bl.minBouncesForRR {
		return false
	}

	survival := throughput.MaxComponent()
	if survival >= 1 {
		return false
	}
	if survival <= 0 || path.Float() >= survival {
		return true
	}

	path.LatestLuminanceSample = throughput.Mul(1.0 / survival)
	return false
}
