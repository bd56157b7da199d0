package store

import "sync"

// broker fans changes out to subscribers and drops revisions that were
// already delivered for a key.
type broker struct {
	mu        sync.Mutex
	nextID    int
	subs      map[int]func(Change)
	delivered map[string]uint64
}

func newBroker() *broker {
	return &broker{
		subs:      make(map[int]func(Change)),
		delivered: make(map[string]uint64),
	}
}

func (b *broker) subscribe(fn func(Change)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// seen reports whether rev of key has been delivered already.
func (b *broker) seen(key string, rev uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return rev <= b.delivered[key]
}

func (b *broker) publish(c Change) {
	b.mu.Lock()
	if c.Revision <= b.delivered[c.Key] {
		b.mu.Unlock()
		return
	}
	b.delivered[c.Key] = c.Revision
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (b *broker) clear() {
	b.mu.Lock()
	b.subs = make(map[int]func(Change))
	b.mu.Unlock()
}
