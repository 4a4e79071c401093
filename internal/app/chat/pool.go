/*
Package chat contains the core logic of the relay.

This file defines the task queue and worker pool that move inbound message
processing off the transport's read path. Tasks enter a buffered channel in
arrival order and are each processed to completion by exactly one worker.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

// Task is one inbound raw message awaiting processing.
type Task struct {
	// Conn is the connection the message arrived on.
	Conn Conn

	// Data is the raw envelope bytes as read from the socket.
	Data []byte
}

// Pool is a fixed-size worker pool consuming a FIFO task queue.
//
// The channel preserves enqueue order; once more than one worker runs,
// completion order across tasks is not guaranteed. Per-connection outbound
// order is still FIFO because queues are only drained by the transport writer.
type Pool struct {
	// tasks is the FIFO queue feeding the workers.
	tasks chan Task

	// stop is closed once to ask all workers to exit. Workers re-check it
	// before every dequeue, so tasks still queued at shutdown are discarded
	// rather than drained.
	stop chan struct{}

	// handler processes a single task to completion.
	handler func(Task)

	// wg tracks the running workers for Stop to join.
	wg sync.WaitGroup

	// stopOnce guards the stop channel close.
	stopOnce sync.Once

	// structured logger with pool context.
	logger zerolog.Logger
}

// NewPool constructs a pool with the given queue capacity. Workers are not
// running until Start is called.
func NewPool(queueSize int, handler func(Task)) *Pool {
	return &Pool{
		tasks:   make(chan Task, queueSize),
		stop:    make(chan struct{}),
		handler: handler,
		logger:  logx.Component("Pool"),
	}
}

// Start launches workerCount worker goroutines.
func (p *Pool) Start(workerCount int) {
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info().Int("workers", workerCount).Int("queue_capacity", cap(p.tasks)).Msg("Worker pool started.")
}

// worker loops dequeuing one task at a time until the pool is stopped.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		// Sticky stop check before waiting, so workers never pick up
		// queued-but-unstarted tasks once shutdown has begun.
		select {
		case <-p.stop:
			return
		default:
		}

		select {
		case <-p.stop:
			return
		case task := <-p.tasks:
			// Both cases can be ready at once and select picks at random;
			// a task dequeued after stop closed is still discarded.
			select {
			case <-p.stop:
				return
			default:
			}
			p.handler(task)
		}
	}
}

// Dispatch enqueues an inbound message at the queue tail. If the pool is
// stopping or the queue is full, the task is dropped and logged; Dispatch
// never blocks the caller.
func (p *Pool) Dispatch(conn Conn, data []byte) {
	select {
	case <-p.stop:
		p.logger.Debug().Str("conn_id", conn.ID()).Msg("Pool stopping. Inbound message dropped.")
		return
	default:
	}

	select {
	case p.tasks <- Task{Conn: conn, Data: data}:
	default:
		p.logger.Warn().
			Str("conn_id", conn.ID()).
			Int("queue_len", len(p.tasks)).
			Msg("Task queue full. Inbound message dropped.")
	}
}

// Stop asks all workers to exit and waits for them. In-progress tasks finish;
// tasks still queued are discarded. Safe to call more than once.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})

	p.wg.Wait()

	if discarded := len(p.tasks); discarded > 0 {
		p.logger.Info().Int("discarded_tasks", discarded).Msg("Worker pool stopped with tasks still queued.")
	} else {
		p.logger.Info().Msg("Worker pool stopped.")
	}
}
