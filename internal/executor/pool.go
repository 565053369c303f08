package executor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shirenchuang/pcli2-mcp/pkg/logger"
)

// ErrPoolExhausted is returned when no spawn slot frees up in time.
var ErrPoolExhausted = errors.New("no free process slot")

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("process pool closed")

// Pool caps the number of child processes running at once. A pool of
// size 0 admits everyone.
type Pool struct {
	size     int
	slots    chan struct{}
	mu       sync.Mutex
	inUse    int
	waiting  int
	admitted uint64
	rejected uint64
	closed   bool
}

// NewPool creates a pool with size slots
func NewPool(size int) *Pool {
	p := &Pool{size: size}
	if size > 0 {
		p.slots = make(chan struct{}, size)
		for i := 0; i < size; i++ {
			p.slots <- struct{}{}
		}
	}
	logger.Infof("process pool ready, size: %d", size)
	return p
}

// Acquire waits up to timeout for a slot. The returned release func must
// be called exactly once; calling it again is a no-op.
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (func(), error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.slots == nil {
		p.inUse++
		p.admitted++
		p.mu.Unlock()
		return p.releaseFunc(nil), nil
	}
	p.waiting++
	p.mu.Unlock()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case slot, ok := <-p.slots:
		p.mu.Lock()
		p.waiting--
		if !ok {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		p.inUse++
		p.admitted++
		p.mu.Unlock()
		return p.releaseFunc(&slot), nil

	case <-timer:
		p.reject()
		return nil, errors.Wrapf(ErrPoolExhausted, "all %d slots busy for %s", p.size, timeout)

	case <-ctx.Done():
		p.reject()
		return nil, errors.Wrap(ctx.Err(), "waiting for a process slot")
	}
}

func (p *Pool) reject() {
	p.mu.Lock()
	p.waiting--
	p.rejected++
	p.mu.Unlock()
}

func (p *Pool) releaseFunc(slot *struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.inUse--
			if slot == nil || p.closed {
				return
			}
			select {
			case p.slots <- *slot:
			default:
				// more releases than slots; should not happen
				logger.Warn("process pool is full, dropping returned slot")
			}
		})
	}
}

// Close stops admitting new work. Slots already held stay valid.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.slots != nil {
		close(p.slots)
	}
	logger.Info("process pool closed")
}

// Stats reports pool usage
func (p *Pool) Stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := -1
	if p.size > 0 {
		available = p.size - p.inUse
	}

	return map[string]interface{}{
		"size":      p.size,
		"in_use":    p.inUse,
		"available": available,
		"waiting":   p.waiting,
		"admitted":  p.admitted,
		"rejected":  p.rejected,
		"closed":    p.closed,
	}
}
