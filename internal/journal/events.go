package journal

import (
	"sync"

	"github.com/mycelian/travelmap/internal/model"
)

// broadcaster fans snapshots out to subscribers. Each subscriber holds at most
// one pending snapshot; a newer one replaces it, so a slow reader only ever
// sees the latest state and publishing never blocks.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan model.Snapshot
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan model.Snapshot)}
}

func (b *broadcaster) subscribe(initial model.Snapshot) (<-chan model.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan model.Snapshot, 1)
	ch <- initial
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (b *broadcaster) publish(s model.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		// drop the stale pending snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
