package task

import (
	"Go_Share/config"
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalPool runs finalize messages on in-process workers fed by a channel.
type LocalPool struct {
	processor   *Processor
	jobs        chan FinalizeMessage
	concurrency int
	limiter     *rate.Limiter
	wg          sync.WaitGroup
}

func NewLocalPool(processor *Processor, cfg config.FinalizeConfig) *LocalPool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &LocalPool{
		processor:   processor,
		jobs:        make(chan FinalizeMessage, size),
		concurrency: concurrency,
		limiter:     newLimiter(cfg.Rate, cfg.Burst),
	}
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}

// Start launches the workers. They exit when ctx is done.
func (p *LocalPool) Start(ctx context.Context) {
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-p.jobs:
					p.handle(ctx, msg)
				}
			}
		}()
	}
}

// Wait blocks until every worker has exited.
func (p *LocalPool) Wait() {
	p.wg.Wait()
}

// Dispatch enqueues the message, blocking while the queue is full.
func (p *LocalPool) Dispatch(ctx context.Context, msg FinalizeMessage) error {
	select {
	case p.jobs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *LocalPool) handle(ctx context.Context, msg FinalizeMessage) {
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}
	err := p.processor.Process(ctx, msg)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	next, delay, retry, settleErr := p.processor.Settle(ctx, msg, err)
	if settleErr != nil {
		log.Printf("finalize pool: settle task %d failed: %v", msg.TaskID, settleErr)
		return
	}
	if !retry {
		log.Printf("finalize pool: task %d failed: %v", msg.TaskID, err)
		return
	}
	log.Printf("finalize pool: task %d attempt %d failed, retry in %s: %v", msg.TaskID, next.Attempt, delay, err)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := p.Dispatch(ctx, next); err != nil {
			log.Printf("finalize pool: requeue task %d failed: %v", next.TaskID, err)
		}
	}()
}
