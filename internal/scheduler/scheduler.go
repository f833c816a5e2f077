// Package scheduler is the C8 component: a cooperative single-threaded loop
// managing a priority queue of next-fire times, submitting due jobs to a
// bounded worker pool without blocking on any individual job (spec.md §4.8).
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/orchestrator"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/registry"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/telemetry"
)

// Runner is the subset of Orchestrator the scheduler needs; narrowed to an
// interface so tests can substitute a fake without a real database.
type Runner interface {
	ScrapeOne(ctx context.Context, source registry.Source, date time.Time, force bool) (interface{}, error)
}

type orchestratorAdapter struct {
	o *orchestrator.Orchestrator
}

func (a orchestratorAdapter) ScrapeOne(ctx context.Context, source registry.Source, date time.Time, force bool) (interface{}, error) {
	return a.o.ScrapeOne(ctx, source, date, force)
}

type fireEntry struct {
	source registry.Source
	next   time.Time
	index  int
}

type fireQueue []*fireEntry

func (q fireQueue) Len() int            { return len(q) }
func (q fireQueue) Less(i, j int) bool  { return q[i].next.Before(q[j].next) }
func (q fireQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *fireQueue) Push(x interface{}) { e := x.(*fireEntry); e.index = len(*q); *q = append(*q, e) }
func (q *fireQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Scheduler drives the warm-up pass and cadence-driven re-fires for every
// source in the registry, capping concurrent in-flight jobs at poolSize and
// refusing to start a second job for a source that is still running.
type Scheduler struct {
	reg      *registry.Registry
	run      Runner
	poolSize int
	log      zerolog.Logger
	tel      *telemetry.Registry

	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	inFlight map[string]bool
}

// New builds a Scheduler. tel may be nil, in which case queue-depth
// reporting is silently skipped.
func New(reg *registry.Registry, o *orchestrator.Orchestrator, poolSize int, tel *telemetry.Registry, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		reg:      reg,
		run:      orchestratorAdapter{o},
		poolSize: poolSize,
		log:      log,
		tel:      tel,
		sem:      make(chan struct{}, poolSize),
		inFlight: make(map[string]bool),
	}
}

// Run executes the warm-up pass, then loops firing sources per their
// cadence until ctx is cancelled. Run waits for in-flight jobs to return;
// their contexts derive from ctx, so they see the same cancellation. Pending
// fires still in the queue when ctx cancels are discarded.
func (s *Scheduler) Run(ctx context.Context) {
	q := &fireQueue{}
	heap.Init(q)

	now := time.Now()
	for _, src := range s.reg.All() {
		heap.Push(q, &fireEntry{source: src, next: now})
	}

	for {
		s.tel.SetQueueDepth(q.Len())
		if q.Len() == 0 {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return
			case <-time.After(time.Second):
				continue
			}
		}

		next := (*q)[0]
		wait := time.Until(next.next)
		if wait > 0 {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return
			case <-time.After(wait):
			}
		}

		entry := heap.Pop(q).(*fireEntry)
		s.submit(ctx, entry.source)
		entry.next = nextFire(entry.source.Cadence, time.Now())
		heap.Push(q, entry)

		if ctx.Err() != nil {
			s.wg.Wait()
			return
		}
	}
}

// submit starts source's job on the bounded worker pool, skipping a source
// that already has an in-flight job (spec.md §4.8 cancellation/overlap
// note: the scheduler never blocks waiting for a slot or a running job).
func (s *Scheduler) submit(ctx context.Context, source registry.Source) {
	s.mu.Lock()
	if s.inFlight[source.Code] {
		s.mu.Unlock()
		s.log.Debug().Str("source", source.Code).Msg("skipping fire: previous job still running")
		return
	}
	s.inFlight[source.Code] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, source.Code)
			s.mu.Unlock()
		}()

		// Acquire a worker-pool slot here, in the goroutine, so a saturated
		// pool never blocks the scheduler's own fire loop.
		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-ctx.Done():
			return
		}

		jobCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		if _, err := s.run.ScrapeOne(jobCtx, source, time.Now(), false); err != nil {
			s.log.Warn().Str("source", source.Code).Err(err).Msg("scheduled scrape failed")
		}
	}()
}

// nextFire computes the next fire time after `after` for cadence, per the
// per-cadence rules in spec.md §4.8.
func nextFire(cadence registry.Cadence, after time.Time) time.Time {
	switch cadence {
	case registry.CadenceRT5, registry.CadenceSnapshot:
		return after.Add(5 * time.Minute)
	case registry.CadenceHourly:
		return time.Date(after.Year(), after.Month(), after.Day(), after.Hour(), 0, 0, 0, after.Location()).Add(time.Hour)
	case registry.CadenceDaily:
		next := time.Date(after.Year(), after.Month(), after.Day(), 1, 0, 0, 0, after.Location())
		if !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case registry.CadenceMultiDaily:
		return after.Add(6 * time.Hour)
	default:
		return after.Add(time.Hour)
	}
}
