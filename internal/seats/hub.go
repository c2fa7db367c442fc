package seats

import (
	"context"
	"sync"
)

// hub fans full-map snapshots out to subscribers. Each subscriber gets a
// buffered channel of one; when a subscriber lags, the pending snapshot is
// replaced by the newer one rather than blocking the writer.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan map[string]Seat
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan map[string]Seat)}
}

// subscribe registers a listener and pushes the initial snapshot before
// returning, so the first receive never waits for a mutation.
func (h *hub) subscribe(ctx context.Context, initial map[string]Seat) (<-chan map[string]Seat, func()) {
	ch := make(chan map[string]Seat, 1)
	ch <- initial

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			unsubscribe()
		}()
	}

	return ch, unsubscribe
}

// broadcast pushes a fresh snapshot to every subscriber
func (h *hub) broadcast(snapshot map[string]Seat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- snapshot:
		default:
			// drain the stale snapshot and replace it
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// count returns the number of live subscribers
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
