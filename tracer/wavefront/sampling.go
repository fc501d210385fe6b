package wavefront

import (
	"github.com/achilleasa/spindle/types"
	"github.com/chewxy/math32"
)

// Map two uniform samples in [0, 1) to a cosine-weighted direction in the
// hemisphere around the normalized vector n.
func cosineSampleHemisphere(n types.Vec3, u1, u2 float32) types.Vec3 {
	r := math32.Sqrt(u1)
	sinPhi, cosPhi := math32.Sincos(2 * math32.Pi * u2)
	z := math32.Sqrt(math32.Max(0, 1-u1))

	tangent, bitangent := types.OrthonormalBasis(n)
	return tangent.Mul(r * cosPhi).
		Add(bitangent.Mul(r * sinPhi)).
		Add(n.Mul(z)).
		Normalize()
}
