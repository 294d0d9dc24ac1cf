package writer

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/markdown"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/metrics"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

// Job renders one question into the backup tree
type Job struct {
	Site     string
	Kind     string
	Question stackexchange.Question
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Written  bool
	Error    error
	Duration time.Duration
	Size     int
}

// QuestionStorage persists rendered questions
type QuestionStorage interface {
	IsBackedUp(site, kind string, questionID int64) bool
	Save(site, kind string, questionID int64, r io.Reader) (bool, error)
}

// Pool renders and writes question files on a bounded set of goroutines
type Pool struct {
	pool    *ants.Pool
	size    int
	storage QuestionStorage
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewPool creates a pool of size workers
func NewPool(size int, storage QuestionStorage, m *metrics.Metrics, log logger.Logger) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer pool: %w", err)
	}

	log.DebugWithFields("Starting writer pool", map[string]interface{}{
		"num_workers": size,
	})
	return &Pool{
		pool:    pool,
		size:    size,
		storage: storage,
		metrics: m,
		logger:  log,
	}, nil
}

// Release stops the pool's goroutines
func (p *Pool) Release() {
	p.pool.Release()
	p.logger.Debug("Writer pool stopped")
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Group collects the results of jobs submitted together
func (p *Pool) Group() *Group {
	return &Group{pool: p}
}

// Summary counts the outcomes of a group
type Summary struct {
	Written int
	Skipped int
	Bytes   int
}

// Group tracks a set of jobs until Wait
type Group struct {
	pool *Pool
	wg   sync.WaitGroup

	mu      sync.Mutex
	summary Summary
	err     error
}

// Submit queues job, blocking while every worker is busy
func (g *Group) Submit(job Job) error {
	g.wg.Add(1)
	err := g.pool.pool.Submit(func() {
		defer g.wg.Done()
		g.record(g.pool.process(job))
	})
	if err != nil {
		g.wg.Done()
		return fmt.Errorf("failed to submit job: %w", err)
	}
	return nil
}

// Wait blocks until every submitted job is done and returns the first error
func (g *Group) Wait() (Summary, error) {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summary, g.err
}

func (g *Group) record(r Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case r.Error != nil:
		if g.err == nil {
			g.err = r.Error
		}
	case r.Written:
		g.summary.Written++
		g.summary.Bytes += r.Size
	default:
		g.summary.Skipped++
	}
}

func (p *Pool) process(job Job) Result {
	start := time.Now()
	result := Result{Job: job}
	id := job.Question.QuestionID

	if p.storage.IsBackedUp(job.Site, job.Kind, id) {
		p.metrics.ObserveFile(job.Kind, "skipped")
		result.Duration = time.Since(start)
		return result
	}

	var buf bytes.Buffer
	if err := markdown.Write(&buf, &job.Question); err != nil {
		result.Error = fmt.Errorf("render question %d: %w", id, err)
		return result
	}
	result.Size = buf.Len()

	written, err := p.storage.Save(job.Site, job.Kind, id, &buf)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("save question %d: %w", id, err)
		p.logger.ErrorWithFields("failed to write question file", map[string]interface{}{
			"site":        job.Site,
			"kind":        job.Kind,
			"question_id": id,
			"error":       err.Error(),
		})
		return result
	}

	result.Written = written
	if written {
		p.metrics.ObserveFile(job.Kind, "written")
		p.logger.DebugWithFields("wrote question file", map[string]interface{}{
			"site":        job.Site,
			"kind":        job.Kind,
			"question_id": id,
			"size":        result.Size,
			"duration":    result.Duration,
		})
	} else {
		p.metrics.ObserveFile(job.Kind, "skipped")
	}
	return result
}
