package gltfio

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltfio/pkg/formats"
)

// locate finds the keyframes bracketing t. i0 == i1 when t is outside the time
// range or the sampler has a single keyframe. NaN clamps to the first keyframe.
func (s *Sampler) locate(t float32) (i0, i1 int, u, dt float32) {
	n := len(s.Times)
	if n == 1 || t <= s.Times[0] || t != t {
		return 0, 0, 0, 0
	}
	if t >= s.Times[n-1] {
		return n - 1, n - 1, 0, 0
	}
	i1 = sort.Search(n, func(i int) bool { return s.Times[i] > t })
	i0 = i1 - 1
	dt = s.Times[i1] - s.Times[i0]
	u = (t - s.Times[i0]) / dt
	return i0, i1, u, dt
}

// value returns the keyframe value for time index i. For cubic samplers part
// selects the in-tangent (0), value (1) or out-tangent (2).
func (s *Sampler) value(i, part int) []float32 {
	c := s.Components
	k := s.Keys[i]
	if s.Interpolation == formats.InterpolationCubicSpline {
		base := (3*k + part) * c
		return s.Values[base : base+c]
	}
	return s.Values[k*c : (k+1)*c]
}

// sampleVec evaluates the sampler at t into a new slice.
func (s *Sampler) sampleVec(t float32) []float32 {
	i0, i1, u, dt := s.locate(t)
	out := make([]float32, s.Components)
	if i0 == i1 {
		copy(out, s.value(i0, 1))
		return out
	}

	switch s.Interpolation {
	case formats.InterpolationStep:
		copy(out, s.value(i0, 1))
	case formats.InterpolationCubicSpline:
		hermite(out, s.value(i0, 1), s.value(i0, 2), s.value(i1, 1), s.value(i1, 0), u, dt)
	default:
		v0, v1 := s.value(i0, 1), s.value(i1, 1)
		for c := range out {
			out[c] = v0[c] + (v1[c]-v0[c])*u
		}
	}
	return out
}

// sampleQuat evaluates a rotation sampler at t. Linear rotations use a
// shortest-path slerp and cubic results are renormalized.
func (s *Sampler) sampleQuat(t float32) mgl32.Quat {
	i0, i1, u, _ := s.locate(t)
	if i0 == i1 || s.Interpolation != formats.InterpolationLinear {
		v := s.sampleVec(t)
		return quatOf(v).Normalize()
	}
	q0 := quatOf(s.value(i0, 1))
	q1 := quatOf(s.value(i1, 1))
	if q0.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}
	return mgl32.QuatSlerp(q0, q1, u).Normalize()
}

// quatOf reads a glTF (x, y, z, w) quaternion.
func quatOf(v []float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// hermite evaluates the cubic Hermite spline between v0 and v1 with out-tangent
// b0 and in-tangent a1, both scaled by the keyframe interval dt.
func hermite(out, v0, b0, v1, a1 []float32, u, dt float32) {
	u2 := u * u
	u3 := u2 * u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2
	for c := range out {
		out[c] = h00*v0[c] + h10*dt*b0[c] + h01*v1[c] + h11*dt*a1[c]
	}
}
