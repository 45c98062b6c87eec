package hex

import (
	"fmt"
	"sort"
)

// ObstacleSet is a set of blocked cells. It is rebuilt each round from
// entity positions plus terrain; nothing owns it across rounds.
// Not safe for concurrent mutation; the round loop serialises access.
type ObstacleSet map[Hex]struct{}

// NewObstacleSet builds a set from the given cells.
func NewObstacleSet(cells ...Hex) ObstacleSet {
	s := make(ObstacleSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts cell into the set.
func (s ObstacleSet) Add(cell Hex) { s[cell] = struct{}{} }

// Remove deletes cell from the set; no-op when absent.
func (s ObstacleSet) Remove(cell Hex) { delete(s, cell) }

// Contains reports whether cell is blocked.
func (s ObstacleSet) Contains(cell Hex) bool {
	_, ok := s[cell]
	return ok
}

// Clone returns an independent copy of the set.
func (s ObstacleSet) Clone() ObstacleSet {
	out := make(ObstacleSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// InRange returns every coordinate within radius of center, inclusive.
//
// Precondition: radius >= 0; negative radius is rejected with an error.
// Postcondition: len(result) == 1 + 3*radius*(radius+1).
func InRange(center Hex, radius int) ([]Hex, error) {
	if radius < 0 {
		return nil, fmt.Errorf("hex.InRange: radius must be >= 0, got %d", radius)
	}
	out := make([]Hex, 0, 1+3*radius*(radius+1))
	for q := -radius; q <= radius; q++ {
		lo := max(-radius, -q-radius)
		hi := min(radius, -q+radius)
		for r := lo; r <= hi; r++ {
			out = append(out, center.Add(New(q, r)))
		}
	}
	return out, nil
}

// Ring returns the coordinates at distance exactly radius from center.
// The walk starts radius steps west of center and proceeds through the six
// directions in table order.
//
// Precondition: radius >= 0.
// Postcondition: len(result) == 6*radius for radius > 0, and 1 for radius == 0.
func Ring(center Hex, radius int) ([]Hex, error) {
	if radius < 0 {
		return nil, fmt.Errorf("hex.Ring: radius must be >= 0, got %d", radius)
	}
	if radius == 0 {
		return []Hex{center}, nil
	}
	out := make([]Hex, 0, 6*radius)
	cur := center.Add(directions[4].Scale(radius)) // start due west
	for dir := 0; dir < 6; dir++ {
		for step := 0; step < radius; step++ {
			out = append(out, cur)
			cur = cur.Add(directions[dir])
		}
	}
	return out, nil
}

// Line returns the straight interpolated path from a to b, inclusive of
// both endpoints. Samples are taken at Distance(a,b)+1 points and rounded.
//
// Postcondition: result[0] == a, result[len-1] == b,
// len(result) == Distance(a, b) + 1.
func Line(a, b Hex) []Hex {
	n := Distance(a, b)
	if n == 0 {
		return []Hex{a}
	}
	out := make([]Hex, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, Lerp(a, b, float64(i)/float64(n)).Round())
	}
	// Endpoints must be exact regardless of rounding on the interior.
	out[0] = a
	out[n] = b
	return out
}

// LineOfSight reports whether the straight line from a to b is clear of
// obstacles. Only interior cells are inspected; the endpoints themselves
// never block. Adjacent or identical cells always have line of sight.
func LineOfSight(a, b Hex, obstacles ObstacleSet) bool {
	if Distance(a, b) <= 1 {
		return true
	}
	cells := Line(a, b)
	for _, c := range cells[1 : len(cells)-1] {
		if obstacles.Contains(c) {
			return false
		}
	}
	return true
}

// IsValidAbilityTarget reports whether target is within rng of caster and
// visible. The target cell itself is not treated as an obstruction; at
// distance <= 1 the sight check passes unconditionally, so adjacency
// bypasses obstruction entirely. That is deliberate: melee-range abilities
// never care about cover.
func IsValidAbilityTarget(caster, target Hex, rng int, obstacles ObstacleSet) bool {
	if Distance(caster, target) > rng {
		return false
	}
	return LineOfSight(caster, target, obstacles)
}

// TacticalSplit partitions reachable cells by their distance to a target.
type TacticalSplit struct {
	// Aggressive cells are within 2 of the target, nearest first.
	Aggressive []Hex
	// Defensive cells are 3 or more from the target, farthest first.
	Defensive []Hex
}

// TacticalPositions splits the cells reachable from current within
// moveRange into aggressive and defensive candidates relative to target.
// Ordering is deterministic: primary key is distance to target, secondary
// key is the canonical cell Key.
//
// Precondition: moveRange >= 0.
func TacticalPositions(current, target Hex, moveRange int) (TacticalSplit, error) {
	cells, err := InRange(current, moveRange)
	if err != nil {
		return TacticalSplit{}, err
	}
	var split TacticalSplit
	for _, c := range cells {
		if Distance(c, target) <= 2 {
			split.Aggressive = append(split.Aggressive, c)
		} else {
			split.Defensive = append(split.Defensive, c)
		}
	}
	sortByTargetDistance(split.Aggressive, target, true)
	sortByTargetDistance(split.Defensive, target, false)
	return split, nil
}

func sortByTargetDistance(cells []Hex, target Hex, ascending bool) {
	sort.Slice(cells, func(i, j int) bool {
		di, dj := Distance(cells[i], target), Distance(cells[j], target)
		if di != dj {
			if ascending {
				return di < dj
			}
			return di > dj
		}
		return cells[i].Key() < cells[j].Key()
	})
}
