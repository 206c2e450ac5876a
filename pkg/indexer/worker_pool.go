package indexer

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"gengraph/pkg/analyzer"
	"gengraph/pkg/util"
)

// fileJob is one file queued for analysis.
type fileJob struct {
	path string
}

// fileResult is the outcome of analyzing one file. Exactly one of Analysis
// and Err is set.
type fileResult struct {
	path     string
	analysis *analyzer.FileAnalysis
	err      error
}

// analyzeFn produces a file analysis from a path. Injected so tests can
// substitute failures without touching the filesystem.
type analyzeFn func(path string) (*analyzer.FileAnalysis, error)

// workerPool fans file analysis out over a fixed set of goroutines.
//
// Worker count defaults to the parser pool size so workers never block
// waiting for a parser.
type workerPool struct {
	numWorkers int
	jobs       chan fileJob
	results    chan fileResult
	analyze    analyzeFn
	logger     *slog.Logger

	wg        sync.WaitGroup
	processed atomic.Int64
	failed    atomic.Int64
}

func newWorkerPool(numWorkers int, analyze analyzeFn, logger *slog.Logger) *workerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}

	return &workerPool{
		numWorkers: numWorkers,
		jobs:       make(chan fileJob, numWorkers*2),
		results:    make(chan fileResult, numWorkers),
		analyze:    analyze,
		logger:     logger,
	}
}

// start spawns the workers. The results channel closes once all submitted
// jobs have been processed and finishSubmitting has been called.
func (wp *workerPool) start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

func (wp *workerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		analysis, err := wp.analyze(job.path)
		if err != nil {
			wp.failed.Add(1)
			wp.results <- fileResult{path: job.path, err: err}
			continue
		}

		wp.processed.Add(1)
		wp.results <- fileResult{path: job.path, analysis: analysis}
	}

	wp.logger.Debug("analysis worker exiting", "worker_id", id)
}

// submit enqueues a job; blocks when the queue is full.
func (wp *workerPool) submit(path string) {
	wp.jobs <- fileJob{path: path}
}

// finishSubmitting signals that no more jobs will arrive.
func (wp *workerPool) finishSubmitting() {
	close(wp.jobs)
}
