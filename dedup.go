package maestro

import "sync"

// Bounds of the output-chunk dedup window: at most dedupMax remembered
// msgIds; when full, only the newest dedupKeep survive the trim.
const (
	dedupMax  = 1000
	dedupKeep = 500
)

// dedupWindow tracks recently seen output msgIds. The transport may
// deliver a broadcast frame more than once when a client holds several
// logical subscriptions; remembered ids are not redelivered to handlers.
type dedupWindow struct {
	mu   sync.Mutex
	ids  []string // insertion order, oldest first
	seen map[string]struct{}
}

func newDedupWindow() *dedupWindow {
	return &dedupWindow{seen: make(map[string]struct{}, dedupKeep)}
}

// remember records id and reports whether it had been seen already.
func (w *dedupWindow) remember(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.seen[id]; dup {
		return true
	}
	if len(w.ids) >= dedupMax {
		w.trim()
	}
	w.ids = append(w.ids, id)
	w.seen[id] = struct{}{}
	return false
}

// trim evicts the oldest entries, keeping the newest dedupKeep.
// Caller holds w.mu.
func (w *dedupWindow) trim() {
	cut := len(w.ids) - dedupKeep
	for _, id := range w.ids[:cut] {
		delete(w.seen, id)
	}
	w.ids = append(w.ids[:0:0], w.ids[cut:]...)
}

func (w *dedupWindow) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ids)
}
