package navmesh

// nodeHeap is an array-backed indexed binary min-heap keyed on
// SearchNode.Total, used as the A* open list (spec §4.5). It supports
// push (bubble-up), pop (swap-last, trickle-down) and reindex (linear
// scan to locate, acceptable because open sets are small for typical
// tile searches) — the same external semantics as the teacher's
// nodeQueue, generalised to operate on *SearchNode rather than a
// pointer into a fixed node array.
type nodeHeap struct {
	items []*SearchNode
}

func newNodeHeap() *nodeHeap { return &nodeHeap{} }

func (h *nodeHeap) empty() bool { return len(h.items) == 0 }

func (h *nodeHeap) push(n *SearchNode) {
	h.items = append(h.items, n)
	h.bubbleUp(len(h.items)-1, n)
}

func (h *nodeHeap) pop() *SearchNode {
	top := h.items[0]
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	if len(h.items) > 0 {
		h.items[0] = last
		h.trickleDown(0, last)
	}
	return top
}

// modify reindexes n after its Total has changed, per spec §4.5's
// documented linear-scan reindex.
func (h *nodeHeap) modify(n *SearchNode) {
	for i, v := range h.items {
		if v == n {
			h.bubbleUp(i, n)
			h.trickleDown(i, n)
			return
		}
	}
}

func (h *nodeHeap) bubbleUp(i int, n *SearchNode) {
	parent := (i - 1) / 2
	for i > 0 && h.items[parent].Total > n.Total {
		h.items[i] = h.items[parent]
		i = parent
		parent = (i - 1) / 2
	}
	h.items[i] = n
}

func (h *nodeHeap) trickleDown(i int, n *SearchNode) {
	size := len(h.items)
	for {
		child := i*2 + 1
		if child >= size {
			break
		}
		if child+1 < size && h.items[child+1].Total < h.items[child].Total {
			child++
		}
		if h.items[child].Total >= n.Total {
			break
		}
		h.items[i] = h.items[child]
		i = child
	}
	h.items[i] = n
}

// nodeFIFO is the popFront FIFO queue used by moveAlongSurface's
// breadth-first flood (spec §4.5).
type nodeFIFO struct {
	items []*SearchNode
}

func (q *nodeFIFO) pushBack(n *SearchNode) { q.items = append(q.items, n) }

func (q *nodeFIFO) empty() bool { return len(q.items) == 0 }

func (q *nodeFIFO) popFront() *SearchNode {
	n := q.items[0]
	q.items = q.items[1:]
	return n
}
