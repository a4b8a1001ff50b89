package generate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/jidai/pkg/utils"
)

type job struct {
	ctx      context.Context
	question string
	passage  string
	reply    chan string
}

// Pool runs interpretations on a fixed set of workers sharing one Interpreter.
// Callers block until their job is answered or their context ends.
type Pool struct {
	inner  Interpreter
	jobs   chan job
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool starts workers goroutines serving inner. queueSize bounds pending jobs.
func NewPool(inner Interpreter, workers, queueSize int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	logger = utils.OrNop(logger)
	p := &Pool{
		inner:  inner,
		jobs:   make(chan job, queueSize),
		closed: make(chan struct{}),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		select {
		case <-p.closed:
			return
		case j := <-p.jobs:
			if j.ctx.Err() != nil {
				j.reply <- FallbackNoInputs
				continue
			}
			j.reply <- p.inner.Interpret(j.ctx, j.question, j.passage)
		}
	}
}

// Interpret submits a job and waits for its answer. A cancelled context or a closed
// pool yields FallbackNoInputs.
func (p *Pool) Interpret(ctx context.Context, question, passage string) string {
	j := job{ctx: ctx, question: question, passage: passage, reply: make(chan string, 1)}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return FallbackNoInputs
	case <-p.closed:
		p.logger.Debug("generation pool closed")
		return FallbackNoInputs
	}
	select {
	case out := <-j.reply:
		return out
	case <-ctx.Done():
		return FallbackNoInputs
	case <-p.closed:
		return FallbackNoInputs
	}
}

// Close stops the workers after their current job. Safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.closed) })
	p.wg.Wait()
}
