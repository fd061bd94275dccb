// Package workerpool runs a fixed-size pool of goroutines draining a task
// channel, supervised by a tomb.Tomb so the pool shuts down cleanly when
// the owning server's context is cancelled.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// Func is the work performed for each task handed to the pool.
type Func = func(t *tomb.Tomb, task any) error

// Pool is a fixed-size pool of workers pulling from a shared task channel.
type Pool struct {
	n     int
	tasks chan any
}

// New constructs a pool with the given number of workers.
func New(size int) Pool {
	return Pool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// AddTask enqueues a task for a worker to pick up.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Setup starts the pool's workers under t, maintaining n active workers
// until t is dying.
func (p *Pool) Setup(t *tomb.Tomb, work Func) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < p.n {
				t.Go(func() error {
					err := p.worker(t, work)
					active--
					return err
				})
				active++
			}
		}
	}
}

// worker waits for one task, performs it, and returns so Setup can spin up
// its replacement; this bounds each goroutine's lifetime to a single task.
func (p *Pool) worker(t *tomb.Tomb, work Func) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-p.tasks:
		if err := work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting on error")
			return err
		}
	}
	return nil
}
