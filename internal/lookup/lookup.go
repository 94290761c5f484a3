// Package lookup runs debounced remote queries where only the newest query
// may deliver a result.
package lookup

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the debounce used for type-ahead queries.
const DefaultDelay = 150 * time.Millisecond

// Fetch performs one query.
type Fetch[Q, T any] func(ctx context.Context, query Q) (T, error)

// Ticket identifies one query started with Begin.
type Ticket[Q any] struct {
	Seq   uint64
	Query Q
	ctx   context.Context
}

// Result is the outcome of Run.
type Result[Q, T any] struct {
	Seq   uint64
	Query Q
	Value T
	Err   error
}

// Lookup tracks the live query. Starting a new one cancels the previous.
type Lookup[Q, T any] struct {
	delay time.Duration
	fetch Fetch[Q, T]

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func New[Q, T any](delay time.Duration, fetch Fetch[Q, T]) *Lookup[Q, T] {
	return &Lookup[Q, T]{delay: delay, fetch: fetch}
}

// Begin cancels any pending query and returns a ticket for query.
func (l *Lookup[Q, T]) Begin(parent context.Context, query Q) Ticket[Q] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.seq++
	return Ticket[Q]{Seq: l.seq, Query: query, ctx: ctx}
}

// Run waits out the debounce delay and performs the fetch. It blocks; callers
// run it off the UI goroutine.
func (l *Lookup[Q, T]) Run(t Ticket[Q]) Result[Q, T] {
	res := Result[Q, T]{Seq: t.Seq, Query: t.Query}
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if l.delay > 0 {
		timer := time.NewTimer(l.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.Err = ctx.Err()
			return res
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Value, res.Err = l.fetch(ctx, t.Query)
	return res
}

// Current reports whether seq is still the newest ticket.
func (l *Lookup[Q, T]) Current(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return seq == l.seq
}

// Cancel stops the pending query, if any. Results already in flight are
// no longer current.
func (l *Lookup[Q, T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}
