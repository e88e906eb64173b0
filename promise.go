package promisify

import (
	"context"
	"sync"
)

// Result represents the value a promise settles with.
// For fulfilled promises, this holds the success value.
// For rejected promises, this holds the rejection error.
type Result = any

// PromiseState represents the lifecycle state of a [Promise].
// A promise starts in [Pending] state and transitions to either
// [Resolved] (also known as [Fulfilled]) or [Rejected].
// State transitions are irreversible.
type PromiseState int

const (
	// Pending indicates the operation is still in progress.
	Pending PromiseState = iota

	// Resolved indicates the promise completed successfully with a value.
	Resolved

	// Rejected indicates the promise failed with an error.
	Rejected
)

const (
	// Fulfilled is an alias for [Resolved], matching promise terminology.
	Fulfilled = Resolved
)

// String returns a human-readable representation of the state.
func (s PromiseState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Resolved:
		return "Resolved"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Promise is a read-only view of a future result.
// It represents an asynchronous operation that will eventually complete
// with either a success value or a failure reason.
type Promise interface {
	// State returns the current [PromiseState].
	State() PromiseState

	// Result returns the result of the promise if settled, or nil if pending.
	// For resolved promises, returns the fulfillment value.
	// For rejected promises, returns the rejection error.
	// Note: A resolved promise can legitimately have a nil result value.
	Result() Result

	// ToChannel returns a channel that will receive the result when the
	// promise settles. The channel is buffered (capacity 1) and closed after
	// sending; on an already-settled promise the result is waiting on the
	// channel at return.
	ToChannel() <-chan Result
}

// Deferred is the write surface of a deferred result: a [Promise] that can
// be settled exactly once. Settling an already-settled deferred is a no-op;
// a second attempt is silently discarded, never an error.
type Deferred interface {
	// Resolve fulfils the deferred result with the given value.
	Resolve(val Result)

	// Reject fails the deferred result with the given error.
	Reject(err error)

	// Promise returns the read-only view of this deferred result.
	Promise() Promise
}

// DeferredFactory constructs a fresh, pending [Deferred]. Supply a custom
// factory via [WithDeferredFactory] to interoperate with an external
// promise implementation.
type DeferredFactory func() Deferred

// deferredResult is the built-in Deferred implementation.
type deferredResult struct {
	result      Result
	subscribers []chan Result
	state       PromiseState
	mu          sync.Mutex
}

var (
	_ Promise  = (*deferredResult)(nil)
	_ Deferred = (*deferredResult)(nil)
)

// NewDeferred returns a pending deferred result using the built-in
// implementation. This is the default [DeferredFactory].
func NewDeferred() Deferred {
	return &deferredResult{state: Pending}
}

func (p *deferredResult) State() PromiseState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *deferredResult) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *deferredResult) Promise() Promise { return p }

func (p *deferredResult) ToChannel() <-chan Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Settled: no subscription needed, hand back the result immediately.
	if p.state != Pending {
		ch := make(chan Result, 1)
		ch <- p.result
		close(ch)
		return ch
	}

	ch := make(chan Result, 1)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

func (p *deferredResult) Resolve(val Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Pending {
		return
	}

	p.state = Fulfilled
	p.result = val
	p.fanOut()
}

func (p *deferredResult) Reject(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Pending {
		return
	}

	p.state = Rejected
	p.result = err
	p.fanOut()
}

// fanOut delivers the result to every subscriber channel and closes it.
// Requires p.mu. Every subscriber channel has capacity 1 and gets exactly
// one send, so the sends never block.
func (p *deferredResult) fanOut() {
	for _, ch := range p.subscribers {
		ch <- p.result
		close(ch)
	}
	p.subscribers = nil
}

// Await blocks until the promise settles or the context is done, whichever
// comes first.
//
// A rejected promise yields the rejection error. A fulfilled promise yields
// its value as T; a fulfilment value of the wrong dynamic type yields a
// [*TypeError]. A nil fulfilment value yields the zero T.
func Await[T any](ctx context.Context, p Promise) (T, error) {
	var zero T

	var res Result
	select {
	case res = <-p.ToChannel():
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	if p.State() == Rejected {
		if err, ok := res.(error); ok {
			return zero, err
		}
		return zero, &CallbackError{Value: res}
	}

	if res == nil {
		return zero, nil
	}
	val, ok := res.(T)
	if !ok {
		return zero, &TypeError{Message: fmtTypeMismatch(res, zero)}
	}
	return val, nil
}
