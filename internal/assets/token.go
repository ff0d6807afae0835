package assets

import "sync"

// CancelToken is the shared cooperative cancellation signal for a session.
// It is checked before each file starts and wired into the in-flight
// transfer's context. Reset supports the "continue" cleanup choice, which
// disregards an earlier cancellation request.
type CancelToken struct {
	mu      sync.Mutex
	ch      chan struct{}
	tripped bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Trip requests cancellation. Idempotent.
func (t *CancelToken) Trip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tripped {
		t.tripped = true
		close(t.ch)
	}
}

// Tripped reports whether cancellation has been requested.
func (t *CancelToken) Tripped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tripped
}

// Done returns a channel closed when cancellation is requested. Callers
// must re-fetch it after Reset.
func (t *CancelToken) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ch
}

// Reset arms the token again after a "continue" decision.
func (t *CancelToken) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tripped {
		t.tripped = false
		t.ch = make(chan struct{})
	}
}
