// Package queue runs background jobs on sharded workers. Jobs sharing a key
// always run on the same worker, in the order they were enqueued.
package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 16
)

// Job is one unit of background work. Key selects the worker.
type Job struct {
	Key string
	Run func(ctx context.Context) error
}

// Dispatcher routes jobs to a fixed set of workers using consistent hashing on
// the job key, guaranteeing per-key ordering.
type Dispatcher struct {
	workers []chan Job
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Job, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands job to the worker responsible for its key. It never blocks:
// when that worker's buffer is full the job is dropped and false is returned.
func (d *Dispatcher) Enqueue(job Job) bool {
	select {
	case d.workers[d.shardIndex(job.Key)] <- job:
		return true
	default:
		d.log.Warn().Str("key", job.Key).Msg("worker queue full, job dropped")
		return false
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Job) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			if err := job.Run(ctx); err != nil {
				d.log.Error().Err(err).
					Str("key", job.Key).
					Int("worker_id", id).
					Msg("background job failed")
			}
		}
	}
}
