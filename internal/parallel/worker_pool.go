// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"fmt"
	"sync"
	"time"

	"reviewlens/internal/observability"
)

// WorkerPool runs partition jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers  int
	jobs     chan *Job
	results  chan *Result
	wg       sync.WaitGroup
	redactor PartitionRedactor
	observer *observability.StandardObserver
}

// Job is one partition to redact.
type Job struct {
	Partition Partition
}

// Result is the outcome of one job.
type Result struct {
	Partition Partition
	Redacted  map[string]string
	Error     error
	Duration  time.Duration
	WorkerID  int
}

// NewWorkerPool creates a pool. Call Start before Submit.
func NewWorkerPool(workers int, redactor PartitionRedactor, observer *observability.StandardObserver) *WorkerPool {
	workers = max(workers, 1)
	return &WorkerPool{
		workers:  workers,
		jobs:     make(chan *Job, workers),
		results:  make(chan *Result, workers),
		redactor: redactor,
		observer: observer,
	}
}

// Start initializes worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit queues a job. It blocks while the queue is full.
func (wp *WorkerPool) Submit(job *Job) {
	wp.jobs <- job
}

// Close signals that no more jobs will be submitted, waits for the workers
// and closes the results channel.
func (wp *WorkerPool) Close() {
	close(wp.jobs)
	wp.wg.Wait()
	close(wp.results)
}

// Results returns the results channel
func (wp *WorkerPool) Results() <-chan *Result {
	return wp.results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		wp.results <- wp.processJob(job, id)
	}
}

// processJob runs the redactor on one partition. A panic in the redactor is
// turned into the job's error so the other partitions are unaffected.
func (wp *WorkerPool) processJob(job *Job, workerID int) (result *Result) {
	start := time.Now()
	result = &Result{Partition: job.Partition, WorkerID: workerID}

	finishTiming := wp.observer.StartTiming("worker_pool", "redact_partition", fmt.Sprintf("partition_%d", job.Partition.Index))

	defer func() {
		if r := recover(); r != nil {
			result.Redacted = nil
			result.Error = fmt.Errorf("panic in partition redactor: %v", r)
		}
		result.Duration = time.Since(start)
		finishTiming(result.Error == nil, map[string]interface{}{
			"worker_id": workerID,
			"reviews":   job.Partition.Load(),
			"movies":    len(job.Partition.MovieIDs),
		})
	}()

	result.Redacted, result.Error = wp.redactor.RedactPartition(job.Partition.Reviews)
	return result
}
