package interfere

import "container/heap"

// pqItem is one entry in the coloring priority queue: a node name plus the
// (priority, saturation) key it was inserted with. Re-inserting a name with
// a different key tombstones the stale entry instead of mutating the heap
// in place, mirroring priority_queue.py's lazy-deletion PriorityQueue
// (REMOVED sentinel) rather than an indexed decrease-key heap, per spec
// §9's design note that either approach is acceptable.
type pqItem struct {
	name       string
	priority   int
	saturation int
	removed    bool
	index      int
}

// less orders items max-first: lower Priority value wins (1 before 2, per
// spec §4.6's "unspillable_movl targets have priority 1 (highest)"), and
// among equal priorities, higher saturation wins — i.e. pop order is
// ascending priority, then descending saturation.
func (it *pqItem) less(other *pqItem) bool {
	if it.priority != other.priority {
		return it.priority < other.priority
	}
	return it.saturation > other.saturation
}

type pqueue struct {
	items   []*pqItem
	entries map[string]*pqItem
}

func newPQueue() *pqueue {
	return &pqueue{entries: make(map[string]*pqItem)}
}

func (q *pqueue) Len() int { return len(q.items) }
func (q *pqueue) Less(i, j int) bool {
	return q.items[i].less(q.items[j])
}
func (q *pqueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}
func (q *pqueue) Push(x any) {
	it := x.(*pqItem)
	it.index = len(q.items)
	q.items = append(q.items, it)
}
func (q *pqueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return it
}

// insert adds name with the given key, tombstoning any stale entry for the
// same name already in the heap (mirrors PriorityQueue.insert's
// self.entries[item] check and _remove call).
func (q *pqueue) insert(name string, priority, saturation int) {
	if old, ok := q.entries[name]; ok {
		old.removed = true
	}
	it := &pqItem{name: name, priority: priority, saturation: saturation}
	q.entries[name] = it
	heap.Push(q, it)
}

// pop returns the next live name, skipping tombstoned entries, or ("",
// false) once the queue is empty.
func (q *pqueue) pop() (string, bool) {
	for q.Len() > 0 {
		it := heap.Pop(q).(*pqItem)
		if it.removed {
			continue
		}
		delete(q.entries, it.name)
		return it.name, true
	}
	return "", false
}
