package work

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gonano/wallet/foundation/nano/block"
)

// Generator lifecycle errors.
var (
	ErrCancelled = errors.New("work request cancelled by generator shutdown")
	ErrRejected  = errors.New("work generator is shut down and cannot accept new requests")
)

// queueCapacity bounds the number of requests waiting on a generator's
// worker. Submissions block once the queue is full.
const queueCapacity = 128

// =============================================================================

// Backend represents the behavior required to be implemented by any work
// computation implementation: a CPU loop, a GPU kernel, or a remote work
// service. A backend must only return solutions valid for the target.
type Backend interface {
	GenerateWork(ctx context.Context, root block.Hash, target Difficulty) (block.Work, error)
}

// GeneratedWork is the audit record for a computed solution, proving which
// policy thresholds produced it.
type GeneratedWork struct {
	Work   block.Work
	Root   block.Hash
	Base   Difficulty
	Target Difficulty
}

// Multiplier returns the difficulty multiplier of the target relative to the
// base threshold.
func (gw GeneratedWork) Multiplier() float64 {
	return gw.Target.MultiplierFrom(gw.Base)
}

// =============================================================================

// request is one queued unit of generation work. The difficulty resolver is
// not invoked until the worker dequeues the request, so time-sensitive
// policies see a fresh value.
type request struct {
	root       block.Hash
	difficulty func() (base Difficulty, target Difficulty, err error)
	result     *Result
}

// Result is the future for a queued work request. Callers block on Wait,
// never on the generator itself.
type Result struct {
	done chan struct{}
	gw   GeneratedWork
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// Wait blocks until the request completes, is cancelled, or the context
// expires.
func (r *Result) Wait(ctx context.Context) (GeneratedWork, error) {
	select {
	case <-r.done:
		return r.gw, r.err
	case <-ctx.Done():
		return GeneratedWork{}, ctx.Err()
	}
}

func (r *Result) complete(gw GeneratedWork) {
	r.gw = gw
	close(r.done)
}

func (r *Result) fail(err error) {
	r.err = err
	close(r.done)
}

// =============================================================================

// Generator accepts work requests from any goroutine and executes them
// strictly one at a time in FIFO arrival order on a single background
// worker. Ordering is guaranteed per generator instance only; multiple
// generators against different backends are independent.
type Generator struct {
	backend Backend
	policy  Policy

	queue chan request
	shut  chan struct{}
	wg    sync.WaitGroup

	mu       sync.Mutex
	shutdown bool
}

// NewGenerator constructs a generator with its own background worker. The
// caller owns the generator's lifetime and must call Shutdown when done;
// the worker is not reclaimed implicitly.
func NewGenerator(backend Backend, policy Policy) *Generator {
	g := Generator{
		backend: backend,
		policy:  policy,
		queue:   make(chan request, queueCapacity),
		shut:    make(chan struct{}),
	}

	g.wg.Add(1)
	go g.run()

	return &g
}

// Shutdown stops the worker, cancels all queued but unstarted requests, and
// causes further submissions to be rejected. It is safe to call more than
// once.
func (g *Generator) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.shutdown {
		return
	}
	g.shutdown = true
	close(g.shut)
	g.wg.Wait()
}

// Generate enqueues a request for the given root at an explicit target
// difficulty.
func (g *Generator) Generate(root block.Hash, target Difficulty) (*Result, error) {
	return g.enqueue(request{
		root: root,
		difficulty: func() (Difficulty, Difficulty, error) {
			return target, target, nil
		},
	})
}

// GenerateForBlock enqueues a request for a block, deriving the target from
// the generator's policy and the given multiplier. The policy is consulted
// when the request starts, not when it is enqueued.
func (g *Generator) GenerateForBlock(b block.Block, multiplier float64) (*Result, error) {
	if multiplier <= 0 {
		return nil, ErrInvalidMultiplier
	}

	intent := b.Intent()
	return g.enqueue(request{
		root: b.Root(),
		difficulty: func() (Difficulty, Difficulty, error) {
			base := g.policy.ForIntent(intent)
			target, err := base.Multiply(multiplier)
			if err != nil {
				return 0, 0, err
			}
			return base, target, nil
		},
	})
}

// GenerateBase enqueues a request for the given root at the policy's base
// difficulty, resolved when the request starts.
func (g *Generator) GenerateBase(root block.Hash) (*Result, error) {
	return g.enqueue(request{
		root: root,
		difficulty: func() (Difficulty, Difficulty, error) {
			base := g.policy.Base()
			return base, base, nil
		},
	})
}

// =============================================================================

// enqueue submits a request to the worker. The mutex is held across the
// shutdown check and the channel send so a request can never slip into the
// queue after the shutdown drain has run.
func (g *Generator) enqueue(req request) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.shutdown {
		return nil, ErrRejected
	}

	req.result = newResult()
	g.queue <- req

	return req.result, nil
}

// run is the single consumer goroutine. It owns the FIFO ordering guarantee.
func (g *Generator) run() {
	defer g.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel any in-flight backend computation once shutdown is signaled.
	go func() {
		<-g.shut
		cancel()
	}()

	for {
		select {
		case <-g.shut:
			g.drain()
			return

		case req := <-g.queue:
			g.process(ctx, req)
		}
	}
}

func (g *Generator) process(ctx context.Context, req request) {
	base, target, err := req.difficulty()
	if err != nil {
		req.result.fail(fmt.Errorf("resolving difficulty for root %s: %w", req.root, err))
		return
	}

	work, err := g.backend.GenerateWork(ctx, req.root, target)
	if err != nil {
		if ctx.Err() != nil {
			req.result.fail(ErrCancelled)
			return
		}
		req.result.fail(fmt.Errorf("generating work for root %s: %w", req.root, err))
		return
	}

	// A backend must never hand back an invalid solution.
	if !IsValid(work, req.root, target) {
		req.result.fail(fmt.Errorf("backend returned an invalid solution for root %s at target %s", req.root, target))
		return
	}

	req.result.complete(GeneratedWork{
		Work:   work,
		Root:   req.root,
		Base:   base,
		Target: target,
	})
}

// drain fails every queued but unstarted request with a cancelled status.
func (g *Generator) drain() {
	for {
		select {
		case req := <-g.queue:
			req.result.fail(ErrCancelled)
		default:
			return
		}
	}
}
