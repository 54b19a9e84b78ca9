// internal/platform/sweeper/runner.go
package sweeper

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
)

// Runner schedules the abandonment and discount sweeps. Every job runs under
// cron.SkipIfStillRunning, so a slow pass is skipped rather than stacked:
// overlapping sweeps would fight over the same records.
type Runner struct {
	cron      *cron.Cron
	sweep     *usecase.SweepUsecase
	discounts *usecase.DiscountUsecase
}

func NewRunner(sweep *usecase.SweepUsecase, discounts *usecase.DiscountUsecase) *Runner {
	return &Runner{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		sweep:     sweep,
		discounts: discounts,
	}
}

// Start registers the jobs and starts the scheduler. schedule is a standard
// 5-field cron spec.
func (r *Runner) Start(schedule string) error {
	if r == nil || r.sweep == nil {
		return nil
	}
	if schedule == "" {
		schedule = "*/10 * * * *"
	}

	jobs := []struct {
		name string
		run  func(context.Context)
	}{
		{"carts", func(ctx context.Context) {
			if res, err := r.sweep.SweepCarts(ctx); err != nil {
				log.Printf("[sweeper] carts error: %v", err)
			} else {
				log.Printf("[sweeper] carts %s", res)
			}
		}},
		{"checkouts", func(ctx context.Context) {
			if res, err := r.sweep.SweepCheckouts(ctx); err != nil {
				log.Printf("[sweeper] checkouts error: %v", err)
			} else {
				log.Printf("[sweeper] checkouts %s", res)
			}
		}},
		{"payment-failures", func(ctx context.Context) {
			if res, err := r.sweep.SweepPaymentFailures(ctx); err != nil {
				log.Printf("[sweeper] payment failures error: %v", err)
			} else {
				log.Printf("[sweeper] payment failures %s", res)
			}
		}},
	}
	if r.discounts != nil {
		jobs = append(jobs,
			struct {
				name string
				run  func(context.Context)
			}{"discount-reminders", func(ctx context.Context) {
				if res, err := r.discounts.SweepReminders(ctx); err != nil {
					log.Printf("[sweeper] discount reminders error: %v", err)
				} else {
					log.Printf("[sweeper] discount reminders %s", res)
				}
			}},
			struct {
				name string
				run  func(context.Context)
			}{"discount-expiry", func(ctx context.Context) {
				if n, err := r.discounts.SweepExpiry(ctx); err != nil {
					log.Printf("[sweeper] discount expiry error: %v", err)
				} else if n > 0 {
					log.Printf("[sweeper] discount expiry marked=%d", n)
				}
			}},
		)
	}

	for _, job := range jobs {
		run := job.run
		if _, err := r.cron.AddFunc(schedule, func() {
			run(context.Background())
		}); err != nil {
			return fmt.Errorf("sweeper: register %s job: %w", job.name, err)
		}
	}

	r.cron.Start()
	log.Printf("[sweeper] started schedule=%q jobs=%d", schedule, len(jobs))
	return nil
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	log.Printf("[sweeper] stopped")
}
