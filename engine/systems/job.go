package systems

import (
	"errors"
	"runtime"
	"sync"

	"github.com/spaghettifunk/keyframe/engine/core"
)

// Job is a unit of work executed by the worker pool.
type Job struct {
	Name string
	Run  func() error
	// OnFailure is optional and receives the error returned by Run.
	OnFailure func(err error)
}

// JobSystem is a fixed size worker pool. Jobs carry no ordering guarantee
// between each other; Wait is the barrier that joins every submitted job.
type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	workers    sync.WaitGroup
	pending    sync.WaitGroup
	mu         sync.Mutex
	closed     bool
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")

// DefaultWorkerCount leaves one core to the control thread.
func DefaultWorkerCount() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		return 1
	}
	return n
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.workers.Add(1)
		go func() {
			defer js.workers.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job Job) {
	defer js.pending.Done()
	if err := job.Run(); err != nil {
		core.LogError("job %s failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
	}
}

// Submit queues a job. It blocks while the queue is full.
func (js *JobSystem) Submit(job Job) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	js.pending.Add(1)
	js.jobQueue <- job
	return nil
}

// Wait blocks until every job submitted so far has finished.
func (js *JobSystem) Wait() {
	js.pending.Wait()
}

// Workers returns the size of the pool.
func (js *JobSystem) Workers() int {
	return js.numWorkers
}

// Shutdown drains the queue and stops the workers.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	js.mu.Unlock()

	close(js.jobQueue)
	js.workers.Wait()
	return nil
}
