package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

const (
	defaultCountWorkers  = 4                // Number of workers repairing orphans
	defaultSweepInterval = 30 * time.Second // Interval between orphan scans
)

// Sweeper periodically scans for approved enrollments without an active card
// and repairs them in the background. On-demand repair through the admin
// endpoints stays available, the sweeper only covers the periodic case.
type Sweeper struct {
	interval     time.Duration
	countWorkers int

	service *Service
	logger  logger.Logger
}

func NewSweeper(service *Service, logger logger.Logger) *Sweeper {
	return &Sweeper{
		interval:     defaultSweepInterval,
		countWorkers: defaultCountWorkers,
		service:      service,
		logger:       logger,
	}
}

// Run starts the sweep loop and repair workers.
// The returned channel closes when everything stopped after ctx cancellation
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	orphans := make(chan models.Enrollment)

	producerStopped := s.produce(ctx, orphans)
	consumerStopped := s.consume(ctx, orphans)

	go func() {
		defer close(idleStopped)
		<-producerStopped
		close(orphans)
		<-consumerStopped
		s.logger.Debug("Sweeper stopped")
	}()

	return idleStopped
}

func (s *Sweeper) produce(ctx context.Context, out chan<- models.Enrollment) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting orphan scan loop", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Orphan scan loop stopped by context")
				return

			case <-ticker.C:
				for enrollment, err := range s.service.FindOrphanedEnrollments(ctx) {
					if err != nil {
						s.logger.Error("Failed to scan orphaned enrollments", "error", err)
						break
					}

					select {
					case <-ctx.Done():
						s.logger.Debug("Orphan scan loop stopped by context while sending")
						return
					case out <- enrollment:
					}
				}
			}
		}
	}()

	return idleStopped
}

func (s *Sweeper) consume(ctx context.Context, in <-chan models.Enrollment) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < s.countWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, in)
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		s.logger.Debug("Repair workers stopped")
	}()

	return idleStopped
}

func (s *Sweeper) worker(ctx context.Context, in <-chan models.Enrollment) {
	for {
		select {
		case <-ctx.Done():
			return

		case enrollment, ok := <-in:
			if !ok {
				return
			}

			card, err := s.service.Repair(ctx, enrollment.ID)
			if err != nil {
				// Concurrent repair of the same enrollment is fine, the
				// second caller observes the first one's card
				s.logger.Error("Failed to repair enrollment", "error", err, "enrollment_id", enrollment.ID)
				continue
			}

			s.logger.Info("Repaired orphaned enrollment",
				"enrollment_id", enrollment.ID,
				"card_id", card.ID,
			)
		}
	}
}
