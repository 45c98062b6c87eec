package hex

import "container/heap"

// PathOptions bounds the A* search so a hostile or degenerate query can
// never hang the round loop.
type PathOptions struct {
	// MaxDistance rejects searches whose straight-line distance exceeds it.
	MaxDistance int
	// MaxIterations caps node expansions before the search gives up.
	MaxIterations int
}

// DefaultPathOptions are generous enough for any sane encounter map.
func DefaultPathOptions() PathOptions {
	return PathOptions{MaxDistance: 50, MaxIterations: 10000}
}

func (o PathOptions) normalized() PathOptions {
	d := DefaultPathOptions()
	if o.MaxDistance <= 0 {
		o.MaxDistance = d.MaxDistance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	return o
}

// FindPath runs A* from start to goal around obstacles with unit edge cost
// and Distance as the heuristic. It returns the full path including both
// endpoints, or nil when no legal path exists: goal blocked, distance over
// opts.MaxDistance, search budget exhausted, or goal unreachable.
//
// A nil result is a valid "no move" outcome, never a transient failure.
//
// Postcondition: a non-nil result starts at start, ends at goal, and every
// consecutive pair is at Distance 1.
func FindPath(start, goal Hex, obstacles ObstacleSet, opts PathOptions) []Hex {
	opts = opts.normalized()

	if start == goal {
		return []Hex{start}
	}
	if obstacles.Contains(goal) {
		return nil
	}
	if Distance(start, goal) > opts.MaxDistance {
		return nil
	}

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, node{cell: start, priority: Distance(start, goal)})

	cameFrom := make(map[Hex]Hex)
	gScore := map[Hex]int{start: 0}
	closed := make(map[Hex]struct{})

	for iterations := 0; open.Len() > 0; iterations++ {
		if iterations >= opts.MaxIterations {
			return nil
		}
		current := heap.Pop(open).(node).cell
		if current == goal {
			return reconstruct(cameFrom, start, goal, opts.MaxIterations)
		}
		if _, done := closed[current]; done {
			continue
		}
		closed[current] = struct{}{}

		for _, next := range current.Neighbors() {
			if obstacles.Contains(next) {
				continue
			}
			if _, done := closed[next]; done {
				continue
			}
			// Keep the frontier bounded: never expand past the search horizon.
			if Distance(start, next) > opts.MaxDistance {
				continue
			}
			tentative := gScore[current] + 1
			if prev, seen := gScore[next]; seen && tentative >= prev {
				continue
			}
			cameFrom[next] = current
			gScore[next] = tentative
			heap.Push(open, node{cell: next, priority: tentative + Distance(next, goal)})
		}
	}
	return nil
}

// reconstruct walks the predecessor map from goal back to start. The map
// is never trusted to be acyclic: a visited guard plus a hard length cap
// turn a corrupted chain into a nil result instead of an unbounded loop.
func reconstruct(cameFrom map[Hex]Hex, start, goal Hex, maxLen int) []Hex {
	path := []Hex{goal}
	visited := map[Hex]struct{}{goal: {}}
	cur := goal
	for cur != start {
		next, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		if _, cycle := visited[next]; cycle {
			return nil
		}
		if len(path) > maxLen {
			return nil
		}
		visited[next] = struct{}{}
		path = append(path, next)
		cur = next
	}
	// Reverse in place: the walk produced goal..start.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// node is an open-list entry. order is a FIFO tiebreak so equal-priority
// expansions stay deterministic across runs.
type node struct {
	cell     Hex
	priority int
	order    int
}

type nodeQueue struct {
	nodes   []node
	counter int
}

func (q *nodeQueue) Len() int { return len(q.nodes) }

func (q *nodeQueue) Less(i, j int) bool {
	if q.nodes[i].priority != q.nodes[j].priority {
		return q.nodes[i].priority < q.nodes[j].priority
	}
	return q.nodes[i].order < q.nodes[j].order
}

func (q *nodeQueue) Swap(i, j int) { q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i] }

func (q *nodeQueue) Push(x any) {
	n := x.(node)
	n.order = q.counter
	q.counter++
	q.nodes = append(q.nodes, n)
}

func (q *nodeQueue) Pop() any {
	old := q.nodes
	n := old[len(old)-1]
	q.nodes = old[:len(old)-1]
	return n
}
