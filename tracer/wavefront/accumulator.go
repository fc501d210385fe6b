package wavefront

// Fold the luminance gathered by a completed sample into the running
// per-pixel average. Samples with non-finite components are rejected: a
// dropped sample leaves SampleCount and AveragedSamples unchanged and
// increments DroppedSamples instead, so SampleCount counts only the samples
// folded into the average. Returns false if the sample was dropped.
func (p *PathState) Accumulate() bool {
	sample := p.AccumulatedLuminance
	if !sample.IsFinite() {
		p.DroppedSamples++
		return false
	}

	p.SampleCount++
	p.AveragedSamples = p.AveragedSamples.Add(
		sample.Sub(p.AveragedSamples).Mul(1.0 / float32(p.SampleCount)),
	)
	return true
}
