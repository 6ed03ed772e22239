package registry

// Registry sizing constants.
const (
	// DefaultBuckets is the bucket count used when New is given a
	// non-positive value.
	DefaultBuckets = 1024

	// MaxLoadFactor is the average chain length that triggers growth.
	MaxLoadFactor = 4
)

// node is one chain entry.
type node[T any] struct {
	id    uint64
	value T
	next  *node[T]
}

// Registry maps connection identifiers to values of type T.
type Registry[T any] struct {
	head []*node[T]
	size int

	// ranging counts active Range calls. Growth waits until it is zero.
	ranging int
}

// New creates a registry with the given initial bucket count.
func New[T any](buckets int) *Registry[T] {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	return &Registry[T]{
		head: make([]*node[T], buckets),
	}
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int {
	return r.size
}

// Buckets returns the current bucket count.
func (r *Registry[T]) Buckets() int {
	return len(r.head)
}

func (r *Registry[T]) index(id uint64) int {
	return int(id % uint64(len(r.head)))
}

// Insert appends (id, value) to the tail of the id's chain.
//
// Insert does not look for an existing entry with the same id: callers
// guarantee uniqueness. Inserting a duplicate id leaves two nodes, and Find
// returns the older one.
func (r *Registry[T]) Insert(id uint64, value T) {
	n := &node[T]{id: id, value: value}
	link(r.head, r.index(id), n)
	r.size++

	r.maybeGrow()
}

func (r *Registry[T]) maybeGrow() {
	for r.ranging == 0 && r.size > len(r.head)*MaxLoadFactor {
		r.grow()
	}
}

// link appends n to the chain at head[idx].
func link[T any](head []*node[T], idx int, n *node[T]) {
	if head[idx] == nil {
		head[idx] = n
		return
	}
	cur := head[idx]
	for cur.next != nil {
		cur = cur.next
	}
	cur.next = n
}

// grow doubles the bucket array and relinks every node, keeping the
// relative order of nodes that end up in the same chain.
func (r *Registry[T]) grow() {
	old := r.head
	r.head = make([]*node[T], len(old)*2)
	for _, n := range old {
		for n != nil {
			next := n.next
			n.next = nil
			link(r.head, r.index(n.id), n)
			n = next
		}
	}
}

// Find returns the value stored for id.
func (r *Registry[T]) Find(id uint64) (T, bool) {
	for n := r.head[r.index(id)]; n != nil; n = n.next {
		if n.id == id {
			return n.value, true
		}
	}
	var zero T
	return zero, false
}

// Erase removes the entry for id and reports whether one was removed.
// Erasing an absent id is a no-op.
func (r *Registry[T]) Erase(id uint64) bool {
	idx := r.index(id)
	var prev *node[T]
	for n := r.head[idx]; n != nil; n = n.next {
		if n.id != id {
			prev = n
			continue
		}
		if prev == nil {
			r.head[idx] = n.next
		} else {
			prev.next = n.next
		}
		// n.next is left intact so a Range positioned on n can still
		// reach the rest of the chain.
		r.size--
		return true
	}
	return false
}

// Clear drops every entry. The bucket count is kept.
func (r *Registry[T]) Clear() {
	clear(r.head)
	r.size = 0
}

// Range calls fn for every entry, bucket by bucket, until fn returns false.
//
// The successor of each node is captured before fn runs, so fn may Erase
// the id it is visiting. Entries inserted during Range may or may not be
// visited; growth they trigger is deferred until the outermost Range
// returns, so every entry present when Range started is visited once.
func (r *Registry[T]) Range(fn func(id uint64, value T) bool) {
	r.ranging++
	defer func() {
		r.ranging--
		r.maybeGrow()
	}()

	head := r.head
	for i := range head {
		n := head[i]
		for n != nil {
			next := n.next
			if !fn(n.id, n.value) {
				return
			}
			n = next
		}
	}
}

// Values returns a snapshot of all values in bucket order.
func (r *Registry[T]) Values() []T {
	out := make([]T, 0, r.size)
	r.Range(func(_ uint64, v T) bool {
		out = append(out, v)
		return true
	})
	return out
}
