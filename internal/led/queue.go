package led

// cell is one queued action and its remaining repeats.
type cell struct {
	action  Action
	repeats repeats
}

// actionQueue is a fixed-capacity ring of cells. head is the oldest cell,
// tail the next free slot. When full, head == tail.
type actionQueue struct {
	cells  []cell
	head   int
	tail   int
	length int
}

func newActionQueue(capacity int) actionQueue {
	return actionQueue{cells: make([]cell, capacity)}
}

func (q *actionQueue) capacity() int { return len(q.cells) }

func (q *actionQueue) next(i int) int {
	i++
	if i >= len(q.cells) {
		i = 0
	}
	return i
}

// push appends c. On a full queue the oldest cell is overwritten and
// push reports the eviction.
func (q *actionQueue) push(c cell) bool {
	q.cells[q.tail] = c
	q.tail = q.next(q.tail)
	if q.length < len(q.cells) {
		q.length++
		return false
	}
	q.head = q.next(q.head)
	return true
}

// front returns the head cell, or nil when empty.
func (q *actionQueue) front() *cell {
	if q.length == 0 {
		return nil
	}
	return &q.cells[q.head]
}

func (q *actionQueue) dropFront() {
	if q.length == 0 {
		return
	}
	q.cells[q.head] = cell{}
	q.head = q.next(q.head)
	q.length--
}

// wellFormed checks the ring indices against the capacity.
func (q *actionQueue) wellFormed() bool {
	n := len(q.cells)
	return n > 0 &&
		q.head >= 0 && q.head < n &&
		q.tail >= 0 && q.tail < n &&
		q.length >= 0 && q.length <= n &&
		(q.head+q.length)%n == q.tail
}
