package search

import (
	"container/heap"
	"context"
	"math"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/geo"
	"streetsearch/internal/infra/routing/heuristic"
	"streetsearch/internal/infra/routing/termination"
)

// contextCheckInterval is how many settled vertices pass between ctx checks
const contextCheckInterval = 256

// label is the search state handed to heuristics
type label struct {
	vertex *graph.Vertex
}

func (l label) Vertex() *graph.Vertex {
	return l.vertex
}

// queueItem represents a vertex in the priority queue
type queueItem struct {
	vertex   graph.VertexID
	cost     float64
	priority float64 // cost plus remaining weight estimate
	index    int     // Index in the heap
}

// priorityQueue implements heap.Interface for the A* open set
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}

	return pq[i].vertex < pq[j].vertex
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := len(*pq)
	item := x.(*queueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]

	return item
}

// CostModel prices edge traversal for one request
type CostModel struct {
	distance geo.DistanceFunc
	req      *entity.RoutingRequest
}

// NewCostModel creates the cost model for req. The request must have its
// defaults applied.
func NewCostModel(distance geo.DistanceFunc, req *entity.RoutingRequest) CostModel {
	return CostModel{distance: distance, req: req}
}

// Speed returns the fastest speed allowed on e, or 0 if no request mode may use it
func (c CostModel) Speed(e *graph.Edge) float64 {
	speed := 0.0
	for _, mode := range c.req.Modes.Modes() {
		if e.Modes.Has(mode) {
			speed = max(speed, c.req.SpeedFor(mode))
		}
	}

	return speed
}

// Length is the edge length, never shorter than the straight line between
// its endpoints so distance based estimates stay lower bounds
func (c CostModel) Length(g *graph.Graph, e *graph.Edge) float64 {
	from, to := g.Vertex(e.From()), g.Vertex(e.To())
	if from == nil || to == nil {
		return e.Length
	}

	return max(e.Length, c.distance(from.Lat(), from.Lng(), to.Lat(), to.Lng()))
}

// Cost returns the weight of traversing e and whether it is traversable
func (c CostModel) Cost(g *graph.Graph, e *graph.Edge) (float64, bool) {
	speed := c.Speed(e)
	if speed <= 0 {
		return 0, false
	}

	return c.Length(g, e) * c.req.WalkReluctance / speed, true
}

// Search runs a best-first search from origin over g. The heuristic is
// initialized with req and queried for every state pushed on the queue; the
// termination strategy is consulted after every settled vertex. Without a
// termination strategy the search runs until the queue is empty.
func Search(
	ctx context.Context,
	g *graph.Graph,
	distance geo.DistanceFunc,
	origin graph.VertexID,
	req *entity.RoutingRequest,
	h heuristic.RemainingWeightHeuristic,
	term termination.Strategy,
) (*ShortestPathTree, error) {
	start := g.Vertex(origin)
	if start == nil {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "search origin %d", origin)
	}
	if h == nil {
		h = heuristic.Zero{}
	}
	if term == nil {
		term = termination.Never{}
	}
	if err := h.Initialize(req); err != nil {
		return nil, errors.Wrap(err, "failed to initialize heuristic")
	}

	costs := NewCostModel(distance, req)
	tree := newShortestPathTree(g, origin)

	estimate, err := h.Estimate(label{vertex: start})
	if err != nil {
		return nil, errors.Wrap(err, "failed to estimate origin")
	}

	queue := &priorityQueue{}
	heap.Init(queue)
	heap.Push(queue, &queueItem{vertex: origin, cost: 0, priority: estimate})
	tree.cost[origin] = 0

	for queue.Len() > 0 {
		current := heap.Pop(queue).(*queueItem)
		if tree.settled[current.vertex] || current.cost > tree.cost[current.vertex] {
			continue
		}
		tree.settled[current.vertex] = true
		tree.settledCount++

		if tree.settledCount%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.WithStack(err)
			}
		}

		if term.ShouldTerminate(current.vertex) {
			tree.terminated = true

			break
		}

		if err := relax(g, costs, h, tree, queue, current); err != nil {
			return nil, err
		}
	}

	return tree, nil
}

func relax(g *graph.Graph, costs CostModel, h heuristic.RemainingWeightHeuristic, tree *ShortestPathTree, queue *priorityQueue, current *queueItem) error {
	for _, edgeID := range g.Vertex(current.vertex).Outgoing() {
		edge := g.Edge(edgeID)
		if edge == nil {
			continue
		}
		next := g.Vertex(edge.To())
		if next == nil || tree.settled[edge.To()] {
			continue
		}

		weight, ok := costs.Cost(g, edge)
		if !ok {
			continue
		}

		newCost := current.cost + weight
		if newCost >= tree.cost[edge.To()] {
			continue
		}
		tree.cost[edge.To()] = newCost
		tree.parent[edge.To()] = edgeID

		estimate, err := h.Estimate(label{vertex: next})
		if err != nil {
			return errors.Wrapf(err, "failed to estimate vertex %q", next.Label)
		}
		heap.Push(queue, &queueItem{vertex: edge.To(), cost: newCost, priority: newCost + estimate})
	}

	return nil
}

func infiniteCosts(n int) []float64 {
	costs := make([]float64, n)
	for idx := range costs {
		costs[idx] = math.Inf(1)
	}

	return costs
}
