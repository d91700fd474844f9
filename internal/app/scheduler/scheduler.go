// Package scheduler corre jobs de intervalo fijo, cada uno en su goroutine.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type JobFunc func(ctx context.Context) error

type Job struct {
	Name     string
	Every    time.Duration
	Timeout  time.Duration // por corrida; 0 => Every
	RunFirst bool          // corre una vez al arrancar
	Fn       JobFunc
}

type Scheduler struct {
	jobs []Job
	log  *zap.Logger
	wg   sync.WaitGroup

	mu   sync.Mutex
	runs map[string]int
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{log: log.Named("scheduler"), runs: map[string]int{}}
}

func (s *Scheduler) Add(j Job) {
	if j.Every <= 0 {
		s.log.Warn("job without interval ignored", zap.String("job", j.Name))
		return
	}
	s.jobs = append(s.jobs, j)
}

// Start lanza los jobs; paran cuando ctx se cancela.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
		s.log.Info("job started", zap.String("job", j.Name), zap.Duration("every", j.Every))
	}
}

// Wait bloquea hasta que todos los loops terminan.
func (s *Scheduler) Wait() { s.wg.Wait() }

// Runs cuántas veces corrió un job.
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[name]
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()

	if j.RunFirst {
		s.runOnce(ctx, j)
	}

	t := time.NewTicker(j.Every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("job stopped", zap.String("job", j.Name))
			return
		case <-t.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panic", zap.String("job", j.Name), zap.Any("recover", r))
		}
	}()

	timeout := j.Timeout
	if timeout <= 0 {
		timeout = j.Every
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := j.Fn(cctx)

	s.mu.Lock()
	s.runs[j.Name]++
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("job failed", zap.String("job", j.Name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.log.Debug("job done", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}
