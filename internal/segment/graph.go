package segment

import "math"

const (
	parentNone     = 0
	parentTerminal = -1
	parentOrphan   = -2
	notInList      = -1
)

type vertex struct {
	next   int // active list link, notInList when inactive
	parent int // edge to parent, or one of the parent* markers
	first  int // first outgoing edge, 0 when none
	ts     int
	dist   int
	weight float64 // residual terminal capacity: >0 source, <0 sink
	t      int     // 0 source tree, 1 sink tree
}

type edge struct {
	dst    int
	next   int
	weight float64
}

// Graph is a capacitated graph with source and sink terminals, solved with
// the Boykov-Kolmogorov augmenting path algorithm. Edges are stored in
// pairs so that e^1 is the reverse of e; indices 0 and 1 are unused.
type Graph struct {
	vtcs   []vertex
	edges  []edge
	flow   float64
	source []bool
}

// NewGraph preallocates room for the given number of vertices and edge
// pairs.
func NewGraph(vertexCount, edgeCount int) *Graph {
	return &Graph{
		vtcs:  make([]vertex, 0, vertexCount),
		edges: make([]edge, 2, 2*edgeCount+2),
	}
}

// AddVertex adds a vertex with no terminal links and returns its index.
func (g *Graph) AddVertex() int {
	g.vtcs = append(g.vtcs, vertex{next: notInList})
	return len(g.vtcs) - 1
}

// AddEdges connects i and j with capacity w from i to j and revw back.
func (g *Graph) AddEdges(i, j int, w, revw float64) {
	g.edges = append(g.edges, edge{dst: j, next: g.vtcs[i].first, weight: w})
	g.vtcs[i].first = len(g.edges) - 1
	g.edges = append(g.edges, edge{dst: i, next: g.vtcs[j].first, weight: revw})
	g.vtcs[j].first = len(g.edges) - 1
}

// AddTermWeights adds source and sink capacities to vertex i. Flow that can
// pass straight from source to sink through i is counted immediately.
func (g *Graph) AddTermWeights(i int, sourceW, sinkW float64) {
	dw := g.vtcs[i].weight
	if dw > 0 {
		sourceW += dw
	} else {
		sinkW -= dw
	}
	g.flow += math.Min(sourceW, sinkW)
	g.vtcs[i].weight = sourceW - sinkW
}

// InSourceSegment reports whether vertex i ended on the source side of the
// minimum cut, that is whether it is still reachable from the source in the
// residual graph. Only valid after MaxFlow.
func (g *Graph) InSourceSegment(i int) bool {
	return g.source != nil && g.source[i]
}

// markSourceSide flood-fills the residual graph from every vertex with
// remaining source capacity.
func (g *Graph) markSourceSide() {
	g.source = make([]bool, len(g.vtcs))
	stack := make([]int, 0, len(g.vtcs))
	for i := range g.vtcs {
		if g.vtcs[i].weight > 0 {
			g.source[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for ei := g.vtcs[u].first; ei != 0; ei = g.edges[ei].next {
			d := g.edges[ei].dst
			if g.edges[ei].weight > 0 && !g.source[d] {
				g.source[d] = true
				stack = append(stack, d)
			}
		}
	}
}

// MaxFlow computes the maximum flow, leaving the residual graph and search
// trees in place for InSourceSegment.
func (g *Graph) MaxFlow() float64 {
	n := len(g.vtcs)
	// The extra vertex is the list sentinel.
	g.vtcs = append(g.vtcs, vertex{next: notInList})
	defer func() {
		g.vtcs = g.vtcs[:n]
		g.markSourceSide()
	}()

	v := g.vtcs
	e := g.edges
	nilNode := n
	first, last := nilNode, nilNode
	v[nilNode].next = nilNode
	currTS := 0
	var orphans []int

	push := func(u int) {
		v[u].next = nilNode
		v[last].next = u
		last = u
	}

	for i := 0; i < n; i++ {
		vi := &v[i]
		vi.ts = 0
		if vi.weight != 0 {
			v[last].next = i
			last = i
			vi.dist = 1
			vi.parent = parentTerminal
			if vi.weight < 0 {
				vi.t = 1
			} else {
				vi.t = 0
			}
		} else {
			vi.parent = parentNone
		}
	}
	first = v[first].next
	v[last].next = nilNode
	v[nilNode].next = notInList

	for {
		e0 := -1
		var ei int

		// Grow the source and sink trees until they touch.
		for first != nilNode {
			cur := first
			if v[cur].parent != parentNone {
				vt := v[cur].t
				for ei = v[cur].first; ei != 0; ei = e[ei].next {
					if e[ei^vt].weight == 0 {
						continue
					}
					u := e[ei].dst
					if v[u].parent == parentNone {
						v[u].t = vt
						v[u].parent = ei ^ 1
						v[u].ts = v[cur].ts
						v[u].dist = v[cur].dist + 1
						if v[u].next == notInList {
							push(u)
						}
						continue
					}
					if v[u].t != vt {
						e0 = ei ^ vt
						break
					}
					if v[u].dist > v[cur].dist+1 && v[u].ts <= v[cur].ts {
						v[u].parent = ei ^ 1
						v[u].ts = v[cur].ts
						v[u].dist = v[cur].dist + 1
					}
				}
				if e0 > 0 {
					break
				}
			}
			first = v[cur].next
			v[cur].next = notInList
		}

		if e0 <= 0 {
			break
		}

		// Bottleneck capacity along the path. k=1 walks the source tree,
		// k=0 the sink tree.
		minWeight := e[e0].weight
		for k := 1; k >= 0; k-- {
			u := e[e0^k].dst
			for {
				if ei = v[u].parent; ei < 0 {
					break
				}
				minWeight = math.Min(minWeight, e[ei^k].weight)
				u = e[ei].dst
			}
			minWeight = math.Min(minWeight, math.Abs(v[u].weight))
		}

		// Augment and collect orphans.
		e[e0].weight -= minWeight
		e[e0^1].weight += minWeight
		g.flow += minWeight

		for k := 1; k >= 0; k-- {
			u := e[e0^k].dst
			for {
				if ei = v[u].parent; ei < 0 {
					break
				}
				e[ei^(k^1)].weight += minWeight
				e[ei^k].weight -= minWeight
				if e[ei^k].weight == 0 {
					orphans = append(orphans, u)
					v[u].parent = parentOrphan
				}
				u = e[ei].dst
			}
			v[u].weight += minWeight * float64(1-k*2)
			if v[u].weight == 0 {
				orphans = append(orphans, u)
				v[u].parent = parentOrphan
			}
		}

		// Adopt orphans.
		currTS++
		for len(orphans) > 0 {
			o := orphans[len(orphans)-1]
			orphans = orphans[:len(orphans)-1]

			minDist := math.MaxInt
			e0 = 0
			vt := v[o].t

			for ei = v[o].first; ei != 0; ei = e[ei].next {
				if e[ei^(vt^1)].weight == 0 {
					continue
				}
				u := e[ei].dst
				if v[u].t != vt || v[u].parent == parentNone {
					continue
				}
				// Distance to the tree root.
				d := 0
				for {
					if v[u].ts == currTS {
						d += v[u].dist
						break
					}
					ej := v[u].parent
					d++
					if ej < 0 {
						if ej == parentOrphan {
							d = math.MaxInt - 1
						} else {
							v[u].ts = currTS
							v[u].dist = 1
						}
						break
					}
					u = e[ej].dst
				}

				d++
				if d < math.MaxInt {
					if d < minDist {
						minDist = d
						e0 = ei
					}
					for u = e[ei].dst; v[u].ts != currTS; u = e[v[u].parent].dst {
						v[u].ts = currTS
						d--
						v[u].dist = d
					}
				}
			}

			v[o].parent = e0
			if e0 > 0 {
				v[o].ts = currTS
				v[o].dist = minDist
				continue
			}

			// No parent found; o leaves its tree.
			v[o].ts = 0
			for ei = v[o].first; ei != 0; ei = e[ei].next {
				u := e[ei].dst
				ej := v[u].parent
				if v[u].t != vt || ej == parentNone {
					continue
				}
				if e[ei^(vt^1)].weight != 0 && v[u].next == notInList {
					push(u)
				}
				if ej > 0 && e[ej].dst == o {
					orphans = append(orphans, u)
					v[u].parent = parentOrphan
				}
			}
		}
	}
	return g.flow
}
