package ledger

import (
	"sort"
	"sync"
	"time"
)

// LockTable hands out one slot per composite entity key ("account:<id>",
// "business:<name>", "bank"). Acquire takes every requested key in lexicographic
// order so two-entity operations cannot deadlock, and gives up with ErrBusy once
// the wait budget is spent instead of hanging the caller.
type LockTable struct {
	mu    sync.Mutex
	wait  time.Duration
	slots map[string]chan struct{}
}

func NewLockTable(wait time.Duration) *LockTable {
	return &LockTable{wait: wait, slots: make(map[string]chan struct{})}
}

func (t *LockTable) slot(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		t.slots[key] = s
	}
	return s
}

// Acquire locks every key and returns the release func. Duplicate keys collapse to
// a single slot so self-transfers cannot self-deadlock.
func (t *LockTable) Acquire(keys ...string) (func(), error) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			unique = append(unique, k)
		}
	}
	sort.Strings(unique)

	timer := time.NewTimer(t.wait)
	defer timer.Stop()

	held := make([]chan struct{}, 0, len(unique))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range unique {
		s := t.slot(key)
		select {
		case s <- struct{}{}:
			held = append(held, s)
		case <-timer.C:
			release()
			return nil, ErrBusy
		}
	}
	return release, nil
}
