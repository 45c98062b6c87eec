// Package hex implements cube-coordinate hex grid algebra and the spatial
// queries built on it: range and ring enumeration, line interpolation,
// line of sight, A* pathfinding, and tactical position scoring.
//
// Coordinates use the cube representation (q, r, s) with the invariant
// q + r + s == 0. The s component is always derived, never supplied.
package hex

import (
	"fmt"
	"math"
)

// Hex is a cube coordinate on the grid. It is an immutable value type and
// is comparable, so it can key maps directly.
//
// Invariant: Q + R + S == 0.
type Hex struct {
	Q int
	R int
	S int
}

// New constructs a Hex from axial coordinates, deriving s = -q-r.
//
// Postcondition: returned Hex satisfies Q+R+S == 0.
func New(q, r int) Hex {
	return Hex{Q: q, R: r, S: -q - r}
}

// Key returns the canonical "q,r" encoding used in logs and stable sorts.
func (h Hex) Key() string {
	return fmt.Sprintf("%d,%d", h.Q, h.R)
}

// String returns the full cube form, e.g. "(1,-2,1)".
func (h Hex) String() string {
	return fmt.Sprintf("(%d,%d,%d)", h.Q, h.R, h.S)
}

// Add returns the component-wise sum of h and o.
func (h Hex) Add(o Hex) Hex {
	return Hex{Q: h.Q + o.Q, R: h.R + o.R, S: h.S + o.S}
}

// Scale returns h with every component multiplied by k.
func (h Hex) Scale(k int) Hex {
	return Hex{Q: h.Q * k, R: h.R * k, S: h.S * k}
}

// directions is the fixed neighbor table, clockwise from northeast:
// NE, E, SE, SW, W, NW. Ring walks depend on W being index 4.
var directions = [6]Hex{
	{Q: 1, R: -1, S: 0}, // NE
	{Q: 1, R: 0, S: -1}, // E
	{Q: 0, R: 1, S: -1}, // SE
	{Q: -1, R: 1, S: 0}, // SW
	{Q: -1, R: 0, S: 1}, // W
	{Q: 0, R: -1, S: 1}, // NW
}

// Neighbors returns the six adjacent coordinates in direction-table order.
//
// Postcondition: every returned Hex is at Distance exactly 1 from h.
func (h Hex) Neighbors() [6]Hex {
	var out [6]Hex
	for i, d := range directions {
		out[i] = h.Add(d)
	}
	return out
}

// Distance returns the hex distance between a and b: the maximum of the
// absolute cube-component deltas.
//
// Postcondition: Distance(a, b) == Distance(b, a); zero iff a == b.
func Distance(a, b Hex) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S - b.S)
	m := dq
	if dr > m {
		m = dr
	}
	if ds > m {
		m = ds
	}
	return m
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// epsilon bounds the acceptable cube-sum drift for fractional coordinates
// produced by interpolation.
const epsilon = 1e-6

// Frac is a fractional cube coordinate produced by interpolation. It only
// exists between a Lerp and a Round.
type Frac struct {
	Q float64
	R float64
	S float64
}

// IsValid reports whether the fractional cube sum is within epsilon of
// zero. Interpolation between valid hexes always yields valid Fracs;
// anything else entering via Round must be checked first.
func (f Frac) IsValid() bool {
	return math.Abs(f.Q+f.R+f.S) < epsilon
}

// Lerp interpolates between a and b at parameter t in [0, 1].
//
// Postcondition: the result IsValid when a and b satisfy the cube invariant.
func Lerp(a, b Hex, t float64) Frac {
	return Frac{
		Q: float64(a.Q) + (float64(b.Q)-float64(a.Q))*t,
		R: float64(a.R) + (float64(b.R)-float64(a.R))*t,
		S: float64(a.S) + (float64(b.S)-float64(a.S))*t,
	}
}

// Round snaps a fractional coordinate to the nearest valid Hex. Each
// component is rounded independently, then the component with the largest
// rounding error is recomputed from the other two to restore q+r+s == 0.
// Recomputing the worst axis (rather than blindly keeping all three
// rounded values) keeps line drawing consistent on cell boundaries.
//
// The math.Round of -0.x can produce a signed -0.0; converting through int
// normalizes it, so equality and map keying are unaffected.
//
// Postcondition: returned Hex satisfies Q+R+S == 0.
func (f Frac) Round() Hex {
	rq := math.Round(f.Q)
	rr := math.Round(f.R)
	rs := math.Round(f.S)

	dq := math.Abs(rq - f.Q)
	dr := math.Abs(rr - f.R)
	ds := math.Abs(rs - f.S)

	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	default:
		rs = -rq - rr
	}

	return Hex{Q: int(rq), R: int(rr), S: int(rs)}
}
