package collect

import (
	"github.com/Workiva/go-datastructures/queue"

	"github.com/golang/aetherresolve/graph"
)

// workItem is one unit of BFS expansion work: a dependency discovered at a
// parent node, together with the (possibly newly derived) policy instances
// that should govern its own children. Declaration order and depth drive
// ordering, per §4.2's determinism rule ("tie-breaks are by ancestor
// declaration order, then by repository order").
type workItem struct {
	arena      *graph.Arena
	parent     *graph.Node
	path       []graph.Coordinate // (groupId, artifactId, baseVersion) ancestors, for cycle detection
	selector   Selector
	manager    Manager
	traverser  Traverser
	filter     VersionFilter
	dependency *graph.Dependency
	depth      int
	sequence   int64 // monotonic arrival order, breaks ties within a depth
}

// Compare implements queue.Item for Workiva's priority queue: lower depth
// first (breadth-first), then earlier sequence number (declaration order).
func (w *workItem) Compare(other queue.Item) int {
	o := other.(*workItem)
	if w.depth != o.depth {
		if w.depth < o.depth {
			return -1 // higher priority: PriorityQueue pops the "smaller" item first
		}
		return 1
	}
	if w.sequence < o.sequence {
		return -1
	}
	if w.sequence > o.sequence {
		return 1
	}
	return 0
}

// workQueue wraps queue.PriorityQueue with typed Push/Pop and its own
// sequence counter, so callers never have to juggle queue.Item type
// assertions or declaration-order bookkeeping themselves.
type workQueue struct {
	pq   *queue.PriorityQueue
	next int64
}

func newWorkQueue() *workQueue {
	return &workQueue{pq: queue.NewPriorityQueue(64, false)}
}

func (q *workQueue) push(item *workItem) error {
	item.sequence = q.next
	q.next++
	return q.pq.Put(item)
}

// pop blocks until an item is available and returns it, or returns false
// once the queue has been disposed and drained.
func (q *workQueue) pop() (*workItem, bool) {
	items, err := q.pq.Get(1)
	if err != nil || len(items) == 0 {
		return nil, false
	}
	return items[0].(*workItem), true
}

func (q *workQueue) empty() bool {
	return q.pq.Empty()
}

func (q *workQueue) dispose() {
	q.pq.Dispose()
}
