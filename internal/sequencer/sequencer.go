// Package sequencer runs work for one key at a time, in submission order.
//
// Each active key owns a lane: a goroutine draining a channel of jobs. The
// lane is created by the first submission and torn down when its last pending
// job finishes, so idle keys hold no resources.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

type job struct {
	ctx  context.Context
	fn   func(context.Context)
	done chan struct{}
}

type lane struct {
	jobs    chan job
	pending int
}

// Sequencer serializes jobs per key. Jobs for different keys run concurrently.
type Sequencer struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

func New() *Sequencer {
	return &Sequencer{lanes: make(map[string]*lane)}
}

// Do runs fn on the lane for key and waits for it to finish. If ctx ends
// before fn is picked up, fn is skipped and ctx.Err() is returned. If ctx ends
// while fn runs, Do returns early and fn keeps running to completion.
func (s *Sequencer) Do(ctx context.Context, key string, fn func(context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	l, ok := s.lanes[key]
	if !ok {
		l = &lane{jobs: make(chan job)}
		s.lanes[key] = l
		go s.run(key, l)
	}
	l.pending++
	s.mu.Unlock()

	j := job{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case l.jobs <- j:
	case <-ctx.Done():
		s.release(key, l)
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of keys with pending work.
func (s *Sequencer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}

func (s *Sequencer) run(key string, l *lane) {
	for j := range l.jobs {
		s.exec(key, j)
		close(j.done)
		if s.release(key, l) {
			return
		}
	}
}

func (s *Sequencer) exec(key string, j job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sequencer job panicked",
				"key", key,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	j.fn(j.ctx)
}

// release drops one pending job and tears the lane down when none remain.
// No sender can reach a lane after it is removed from the map, so closing
// its channel here is safe.
func (s *Sequencer) release(key string, l *lane) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.pending--
	if l.pending > 0 {
		return false
	}
	if s.lanes[key] == l {
		delete(s.lanes, key)
	}
	close(l.jobs)
	return true
}
