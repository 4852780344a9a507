package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/log"
	"github.com/gyaneshwarpardhi/logreplay/internal/metrics"
)

// JobStatus is the lifecycle state of an asynchronous parse.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is the state of an asynchronous parse.
type Job struct {
	ID        string    `json:"id"`
	ParseID   string    `json:"parse_id"`
	Status    JobStatus `json:"status"`
	Report    *Report   `json:"report,omitempty"`
	Error     string    `json:"error,omitempty"`
	Submitted time.Time `json:"submitted_at"`
	Finished  time.Time `json:"finished_at,omitempty"`
}

// Service runs parses on a worker pool using the builds of the current config.
type Service struct {
	engine  *Engine
	conf    atomic.Pointer[config.BuildConfig]
	pool    *workerPool[*parseWork]
	jobs    *jobStore
	ctx     context.Context
	timeout time.Duration
	logger  zerolog.Logger
}

type parseWork struct {
	ctx   context.Context
	parse Parse
	jobID string       // async only
	done  chan outcome // sync only, buffered
}

type outcome struct {
	report *Report
	err    error
}

// NewService starts a worker pool sized by cfg.Engine. Workers stop when ctx
// is done or Shutdown is called.
func NewService(ctx context.Context, eng *Engine, cfg *config.BuildConfig) *Service {
	conf := *cfg
	config.ApplyDefaults(&conf)
	s := &Service{
		engine:  eng,
		jobs:    newJobStore(conf.Engine.MaxJobs),
		ctx:     ctx,
		timeout: time.Duration(conf.Engine.ParseTimeoutMs) * time.Millisecond,
		logger:  log.WithComponent("service"),
	}
	s.conf.Store(cfg)
	s.pool = newWorkerPool[*parseWork](ctx, conf.Engine.Workers, conf.Engine.QueueDepth, s.process)
	return s
}

// SwapConfig atomically replaces the builds used for new parses (hot reload).
// Pool size and timeouts keep their startup values.
func (s *Service) SwapConfig(cfg *config.BuildConfig) {
	s.conf.Store(cfg)
}

// ApplyConfig checks cfg's module types against the engine registry and swaps
// it in. A rejected config leaves the current one in place.
func (s *Service) ApplyConfig(cfg *config.BuildConfig) error {
	if err := config.CheckTypes(cfg, s.engine.registry.Has); err != nil {
		metrics.ConfigReloads.WithLabelValues("rejected").Inc()
		return err
	}
	s.SwapConfig(cfg)
	metrics.ConfigReloads.WithLabelValues("applied").Inc()
	s.logger.Info().Str(log.FieldVersion, cfg.Version).Int("builds", len(cfg.Builds)).Msg("config applied")
	return nil
}

// Config returns the current configuration.
func (s *Service) Config() *config.BuildConfig {
	return s.conf.Load()
}

// Engine returns the engine parses run on.
func (s *Service) Engine() *Engine { return s.engine }

// ResolveBuild fills p.Build from cfg by the combatant's class and spec when
// the parse does not carry one.
func ResolveBuild(cfg *config.BuildConfig, p Parse) (Parse, error) {
	if p.Build != nil {
		return p, nil
	}
	key := config.BuildKey(p.Combatant.Class, p.Combatant.Spec)
	if cfg == nil {
		return p, fmt.Errorf("%w for %s", ErrNoBuild, key)
	}
	b, ok := cfg.Lookup(p.Combatant.Class, p.Combatant.Spec)
	if !ok {
		return p, fmt.Errorf("%w for %s", ErrNoBuild, key)
	}
	p.Build = &b
	return p, nil
}

// prepare assigns a parse id and resolves the build from the current config.
func (s *Service) prepare(p Parse) (Parse, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return ResolveBuild(s.conf.Load(), p)
}

// ProcessSync runs a parse and waits for its report.
// Returns ErrQueueFull when the queue is full and ErrTimeout after the
// configured parse timeout.
func (s *Service) ProcessSync(ctx context.Context, p Parse) (*Report, error) {
	p, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w := &parseWork{ctx: ctx, parse: p, done: make(chan outcome, 1)}
	if !s.pool.Submit(w) {
		metrics.ParsesDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, s.pool.QueueCap())
	}
	metrics.ParsesEnqueued.Inc()
	s.observeQueue()

	select {
	case out := <-w.done:
		return out.report, s.timeoutErr(out.err)
	case <-ctx.Done():
		return nil, s.timeoutErr(ctx.Err())
	}
}

func (s *Service) timeoutErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrTimeout, s.timeout)
	}
	return err
}

// ProcessAsync enqueues a parse for background processing and returns its job id.
func (s *Service) ProcessAsync(p Parse) (string, error) {
	p, err := s.prepare(p)
	if err != nil {
		return "", err
	}
	jobID := uuid.NewString()
	w := &parseWork{ctx: s.ctx, parse: p, jobID: jobID}
	s.jobs.add(&Job{ID: jobID, ParseID: p.ID, Status: JobQueued, Submitted: time.Now()})
	if !s.pool.Submit(w) {
		s.jobs.remove(jobID)
		metrics.ParsesDropped.Inc()
		return "", fmt.Errorf("%w (capacity %d)", ErrQueueFull, s.pool.QueueCap())
	}
	metrics.ParsesEnqueued.Inc()
	s.observeQueue()
	return jobID, nil
}

// Job returns a snapshot of an asynchronous parse.
func (s *Service) Job(id string) (Job, bool) {
	return s.jobs.get(id)
}

// QueueUtilization returns queue used / capacity (0–1).
func (s *Service) QueueUtilization() float64 {
	if s.pool.QueueCap() == 0 {
		return 0
	}
	return float64(s.pool.QueueLen()) / float64(s.pool.QueueCap())
}

func (s *Service) observeQueue() {
	metrics.QueueUtilization.Set(s.QueueUtilization())
}

func (s *Service) process(_ context.Context, w *parseWork) {
	defer s.observeQueue()
	ctx := w.ctx
	if w.jobID != "" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
		s.jobs.start(w.jobID)
	}

	rep, err := s.engine.Run(ctx, w.parse)

	if w.jobID != "" {
		err = s.timeoutErr(err)
		s.jobs.finish(w.jobID, rep, err)
		if err != nil {
			s.logger.Warn().Err(err).
				Str(log.FieldJobID, w.jobID).
				Str(log.FieldParseID, w.parse.ID).
				Msg("async parse failed")
		}
	}
	if w.done != nil {
		w.done <- outcome{report: rep, err: err}
	}
}

// Shutdown stops accepting parses and waits for queued ones to finish.
func (s *Service) Shutdown() {
	s.pool.Drain()
}

// jobStore keeps async jobs, evicting the oldest finished ones beyond max.
type jobStore struct {
	mu       sync.Mutex
	max      int
	jobs     map[string]*Job
	finished []string // oldest first
}

func newJobStore(max int) *jobStore {
	return &jobStore{max: max, jobs: make(map[string]*Job)}
}

func (js *jobStore) add(j *Job) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.jobs[j.ID] = j
}

func (js *jobStore) remove(id string) {
	js.mu.Lock()
	defer js.mu.Unlock()
	delete(js.jobs, id)
}

func (js *jobStore) start(id string) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if j, ok := js.jobs[id]; ok {
		j.Status = JobRunning
	}
}

func (js *jobStore) finish(id string, rep *Report, err error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	j, ok := js.jobs[id]
	if !ok {
		return
	}
	j.Finished = time.Now()
	if err != nil {
		j.Status = JobFailed
		j.Error = err.Error()
	} else {
		j.Status = JobDone
		j.Report = rep
	}
	js.finished = append(js.finished, id)
	for len(js.finished) > js.max {
		delete(js.jobs, js.finished[0])
		js.finished = js.finished[1:]
	}
}

func (js *jobStore) get(id string) (Job, bool) {
	js.mu.Lock()
	defer js.mu.Unlock()
	j, ok := js.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}
