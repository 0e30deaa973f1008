package storage

import (
	"container/heap"
	"container/list"
	"fmt"
)

const (
	// ExpiryIndexList scans every expirable key on each sweep
	ExpiryIndexList = "list"
	// ExpiryIndexHeap pops keys in deadline order and stops at the first live one
	ExpiryIndexHeap = "heap"
)

// expiryIndex tracks the keys that carry a TTL so a sweep can reclaim them
// without walking keys that never expire. Both implementations reclaim
// exactly the keys whose deadline has passed.
type expiryIndex interface {
	// track registers key with its deadline, replacing any previous registration
	track(key string, expiresAt int64)
	// untrack forgets key. It is a no-op for unknown keys
	untrack(key string)
	// expired unregisters and returns every key with expiresAt < now
	expired(now int64) []string
	len() int
}

func newExpiryIndex(kind string) (expiryIndex, error) {
	switch kind {
	case "", ExpiryIndexList:
		return newListIndex(), nil
	case ExpiryIndexHeap:
		return newHeapIndex(), nil
	}
	return nil, fmt.Errorf("unknown expiry index %q", kind)
}

type expiringKey struct {
	key       string
	expiresAt int64
	index     int // position in the heap, unused by the list
}

// listIndex keeps expirable keys in registration order
type listIndex struct {
	order *list.List
	keys  map[string]*list.Element
}

func newListIndex() *listIndex {
	return &listIndex{
		order: list.New(),
		keys:  make(map[string]*list.Element),
	}
}

func (l *listIndex) track(key string, expiresAt int64) {
	if el, ok := l.keys[key]; ok {
		el.Value.(*expiringKey).expiresAt = expiresAt
		l.order.MoveToBack(el)
		return
	}
	l.keys[key] = l.order.PushBack(&expiringKey{key: key, expiresAt: expiresAt})
}

func (l *listIndex) untrack(key string) {
	if el, ok := l.keys[key]; ok {
		l.order.Remove(el)
		delete(l.keys, key)
	}
}

func (l *listIndex) expired(now int64) []string {
	var keys []string
	for el := l.order.Front(); el != nil; {
		next := el.Next()
		ek := el.Value.(*expiringKey)
		if now > ek.expiresAt {
			l.order.Remove(el)
			delete(l.keys, ek.key)
			keys = append(keys, ek.key)
		}
		el = next
	}
	return keys
}

func (l *listIndex) len() int {
	return l.order.Len()
}

// heapIndex keeps expirable keys in a min-heap by deadline
type heapIndex struct {
	items deadlineHeap
	keys  map[string]*expiringKey
}

func newHeapIndex() *heapIndex {
	return &heapIndex{
		keys: make(map[string]*expiringKey),
	}
}

func (h *heapIndex) track(key string, expiresAt int64) {
	if ek, ok := h.keys[key]; ok {
		ek.expiresAt = expiresAt
		heap.Fix(&h.items, ek.index)
		return
	}
	ek := &expiringKey{key: key, expiresAt: expiresAt}
	h.keys[key] = ek
	heap.Push(&h.items, ek)
}

func (h *heapIndex) untrack(key string) {
	if ek, ok := h.keys[key]; ok {
		heap.Remove(&h.items, ek.index)
		delete(h.keys, key)
	}
}

func (h *heapIndex) expired(now int64) []string {
	var keys []string
	for h.items.Len() > 0 && now > h.items[0].expiresAt {
		ek := heap.Pop(&h.items).(*expiringKey)
		delete(h.keys, ek.key)
		keys = append(keys, ek.key)
	}
	return keys
}

func (h *heapIndex) len() int {
	return h.items.Len()
}

// deadlineHeap implements heap.Interface
type deadlineHeap []*expiringKey

func (d deadlineHeap) Len() int { return len(d) }

func (d deadlineHeap) Less(i, j int) bool { return d[i].expiresAt < d[j].expiresAt }

func (d deadlineHeap) Swap(i, j int) {
	d[i], d[j] = d[j], d[i]
	d[i].index = i
	d[j].index = j
}

func (d *deadlineHeap) Push(x any) {
	ek := x.(*expiringKey)
	ek.index = len(*d)
	*d = append(*d, ek)
}

func (d *deadlineHeap) Pop() any {
	old := *d
	n := len(old)
	ek := old[n-1]
	old[n-1] = nil
	ek.index = -1
	*d = old[:n-1]
	return ek
}
