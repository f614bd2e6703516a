package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"megan-waseller/internal/domain"
)

const (
	DefaultMaxConversations = 1000
	DefaultIdleTTL          = 24 * time.Hour
)

type lruEntry struct {
	address    string
	transcript domain.Transcript
	lastUsed   time.Time
}

// LRU is a bounded in-process backend. It evicts the least recently used
// conversation beyond maxEntries and drops conversations idle for longer
// than idleTTL.
type LRU struct {
	mu         sync.Mutex
	order      *list.List
	entries    map[string]*list.Element
	maxEntries int
	idleTTL    time.Duration
	now        func() time.Time
}

func NewLRU(maxEntries int, idleTTL time.Duration) *LRU {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxConversations
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &LRU{
		order:      list.New(),
		entries:    make(map[string]*list.Element),
		maxEntries: maxEntries,
		idleTTL:    idleTTL,
		now:        time.Now,
	}
}

func (l *LRU) LoadOrCreate(_ context.Context, address string, seed domain.Utterance) (domain.Transcript, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.expireLocked(now)
	if el, ok := l.entries[address]; ok {
		e := el.Value.(*lruEntry)
		e.lastUsed = now
		l.order.MoveToFront(el)
		return e.transcript.Clone(), nil
	}
	e := l.insertLocked(address, domain.Transcript{seed}, now)
	return e.transcript.Clone(), nil
}

func (l *LRU) Append(_ context.Context, address string, seed domain.Utterance, utterances ...domain.Utterance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.expireLocked(now)
	if el, ok := l.entries[address]; ok {
		e := el.Value.(*lruEntry)
		e.transcript = append(e.transcript, utterances...)
		e.lastUsed = now
		l.order.MoveToFront(el)
		return nil
	}
	t := make(domain.Transcript, 0, len(utterances)+1)
	t = append(t, seed)
	l.insertLocked(address, append(t, utterances...), now)
	return nil
}

// Len returns the number of retained conversations.
func (l *LRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

func (l *LRU) insertLocked(address string, t domain.Transcript, now time.Time) *lruEntry {
	e := &lruEntry{address: address, transcript: t, lastUsed: now}
	l.entries[address] = l.order.PushFront(e)
	for l.order.Len() > l.maxEntries {
		l.removeLocked(l.order.Back())
	}
	return e
}

// expireLocked drops idle conversations from the cold end of the list.
func (l *LRU) expireLocked(now time.Time) {
	for el := l.order.Back(); el != nil; el = l.order.Back() {
		if now.Sub(el.Value.(*lruEntry).lastUsed) <= l.idleTTL {
			return
		}
		l.removeLocked(el)
	}
}

func (l *LRU) removeLocked(el *list.Element) {
	e := el.Value.(*lruEntry)
	l.order.Remove(el)
	delete(l.entries, e.address)
}
