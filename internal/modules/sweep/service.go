package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrGridTooLarge rejects sweeps with more cells than the service allows.
var ErrGridTooLarge = errors.New("sweep: grid too large")

// Service runs sweeps in the background and stores their results.
type Service struct {
	repo     *Repository
	log      zerolog.Logger
	workers  int
	maxCells int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a service whose sweeps use at most workers concurrent
// evaluations unless a request asks for fewer.
func NewService(repo *Repository, workers int, log zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:     repo,
		log:      log.With().Str("component", "sweep_service").Logger(),
		workers:  workers,
		maxCells: DefaultMaxGridCells,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetMaxGridCells changes the largest grid Submit accepts. Values below one
// restore the default.
func (s *Service) SetMaxGridCells(n int) {
	if n < 1 {
		n = DefaultMaxGridCells
	}
	s.maxCells = n
}

// MaxGridCells returns the largest grid Submit accepts.
func (s *Service) MaxGridCells() int {
	return s.maxCells
}

// Repository returns the backing repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Submit records a new sweep and starts it. The returned id can be polled
// through the repository.
func (s *Service) Submit(ctx context.Context, kind string, req Request, ev Evaluator) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if cells := req.Cells(); cells > s.maxCells {
		return "", fmt.Errorf("%w: %d cells, limit %d", ErrGridTooLarge, cells, s.maxCells)
	}
	if req.Workers <= 0 || (s.workers > 0 && req.Workers > s.workers) {
		req.Workers = s.workers
	}

	id, err := s.repo.Create(ctx, kind, req)
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(id, kind, req, ev)
	}()
	return id, nil
}

func (s *Service) run(id, kind string, req Request, ev Evaluator) {
	log := s.log.With().Str("id", id).Str("kind", kind).Logger()
	log.Info().
		Int("alphas", len(req.Alphas)).
		Int("phi_exts", len(req.PhiExts)).
		Int("workers", req.Workers).
		Msg("Sweep started")

	progress := NewProgressReporter(LogProgress(log))
	res, err := Run(s.ctx, req, ev, progress)
	if err != nil {
		if ferr := s.repo.Fail(context.Background(), id, err); ferr != nil {
			log.Error().Err(ferr).Msg("Failed to mark sweep as failed")
		}
		return
	}

	if err := s.repo.Complete(context.Background(), id, res); err != nil {
		log.Error().Err(err).Msg("Failed to store sweep result")
		return
	}
	log.Info().Int("failures", len(res.Failures)).Msg("Sweep completed")
}

// Wait blocks until every submitted sweep has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown cancels running sweeps and waits for them to stop or for ctx to
// expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
