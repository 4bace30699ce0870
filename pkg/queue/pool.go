package queue

import (
	"context"
	"runtime"
	"sync"
)

// Task is one independent unit of work. Tasks carry their own failure
// handling; the pool never aborts on a task error.
type Task func(ctx context.Context)

// Pool dispatches tasks over a fixed number of workers. Wait is the
// explicit join point: it blocks until every submitted task has finished.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
	ctx   context.Context
}

// NewPool starts a pool with the given worker count; workers <= 0 means
// one worker per CPU.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks: make(chan Task),
		ctx:   ctx,
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for task := range p.tasks {
		task(p.ctx)
		p.wg.Done()
	}
}

// Submit enqueues a task. Blocks when all workers are busy.
func (p *Pool) Submit(t Task) {
	p.wg.Add(1)
	p.tasks <- t
}

// Wait blocks until all submitted tasks have completed. The pool can be
// reused after Wait returns.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops the workers. No Submit may follow.
func (p *Pool) Close() {
	close(p.tasks)
}
