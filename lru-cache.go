package oioproxy

import "time"

// entryList is the doubly linked list backing a Cache: entries are
// threaded in insertion order, most recently inserted at the head, so
// size-based eviction can always drop from the tail (spec §4.1:
// "entries must be iterable in insertion order (oldest first) for
// eviction"). Unlike a classic LRU, reads never reorder the list —
// only put() does, since only put() stamps a new insertion clock.
type entryList struct {
	maxItems   int
	items      map[string]*entryItem
	head, tail *entryItem
}

type entryItem struct {
	Key        string
	Value      []string
	InsertedAt time.Time
	prev, next *entryItem
}

func newEntryList(maxItems int) *entryList {
	head := new(entryItem)
	tail := new(entryItem)
	head.next = tail
	tail.prev = head
	return &entryList{
		maxItems: maxItems,
		items:    make(map[string]*entryItem),
		head:     head,
		tail:     tail,
	}
}

// put inserts or replaces key, stamping insertedAt and moving it to the
// head of the list (the most recently inserted position), then evicts
// from the tail until the list is within maxItems.
func (l *entryList) put(key string, value []string, now time.Time) {
	if item, ok := l.items[key]; ok {
		l.unlink(item)
		item.Value = value
		item.InsertedAt = now
		l.pushFront(item)
		return
	}
	item := &entryItem{Key: key, Value: value, InsertedAt: now}
	l.items[key] = item
	l.pushFront(item)
	l.resize()
}

// get returns the value for key without altering its position in the
// insertion-order list (reads do not affect eviction order).
func (l *entryList) get(key string) ([]string, bool) {
	item, ok := l.items[key]
	if !ok {
		return nil, false
	}
	return item.Value, true
}

func (l *entryList) delete(key string) bool {
	item, ok := l.items[key]
	if !ok {
		return false
	}
	l.unlink(item)
	delete(l.items, key)
	return true
}

// deleteFunc removes every entry for which f returns true, walking from
// the tail (oldest) to the head (newest), and reports how many were
// removed.
func (l *entryList) deleteFunc(f func(key string, insertedAt time.Time) bool) int {
	var removed int
	for item := l.tail.prev; item != l.head; {
		prev := item.prev
		if f(item.Key, item.InsertedAt) {
			l.unlink(item)
			delete(l.items, item.Key)
			removed++
		}
		item = prev
	}
	return removed
}

// resize evicts from the tail until the list is within maxItems. A
// maxItems of 0 disables size-based eviction, per spec §4.1.
func (l *entryList) resize() int {
	if l.maxItems <= 0 {
		return 0
	}
	var removed int
	for len(l.items) > l.maxItems {
		oldest := l.tail.prev
		if oldest == l.head {
			break
		}
		l.unlink(oldest)
		delete(l.items, oldest.Key)
		removed++
	}
	return removed
}

func (l *entryList) reset() {
	head := new(entryItem)
	tail := new(entryItem)
	head.next = tail
	tail.prev = head
	l.head = head
	l.tail = tail
	l.items = make(map[string]*entryItem)
}

func (l *entryList) size() int {
	return len(l.items)
}

func (l *entryList) pushFront(item *entryItem) {
	item.next = l.head.next
	item.prev = l.head
	l.head.next.prev = item
	l.head.next = item
}

func (l *entryList) unlink(item *entryItem) {
	item.prev.next = item.next
	item.next.prev = item.prev
}
