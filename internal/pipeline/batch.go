package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/xbrl-fetch/internal/model"
	"github.com/sells-group/xbrl-fetch/internal/resilience"
)

// RunBatch processes entries with bounded concurrency. Individual company
// failures are recorded on the report and returned as dead letters; only
// cancellation of ctx is returned as an error. Reports keep input order.
func (p *Pipeline) RunBatch(ctx context.Context, entries []model.CompanyEntry) (*model.BatchReport, []resilience.DeadLetter, error) {
	report := &model.BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Companies: make([]model.CompanyReport, len(entries)),
	}
	log := zap.L().With(zap.String("run_id", report.RunID))

	if len(entries) == 0 {
		log.Info("no companies to process")
		report.FinishedAt = time.Now().UTC()
		return report, nil, nil
	}

	log.Info("processing batch",
		zap.Int("companies", len(entries)),
		zap.Int("concurrency", p.opts.Concurrency),
	)

	dead := make([]*resilience.DeadLetter, len(entries))
	var succeeded, empty, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Companies[i] = model.CompanyReport{
					Input:  entry.Input,
					Name:   entry.Name,
					Status: model.CompanyStatusFailed,
					Error:  err.Error(),
				}
				dl := resilience.NewDeadLetter(entry, PhaseQueued, resilience.NewTransientError(err, 0))
				dead[i] = &dl
				failed.Add(1)
				return nil
			}

			cr, phase, err := p.processCompany(gctx, entry)
			report.Companies[i] = *cr
			switch cr.Status {
			case model.CompanyStatusOK:
				succeeded.Add(1)
			case model.CompanyStatusEmpty:
				empty.Add(1)
			default:
				failed.Add(1)
				if err != nil {
					dl := resilience.NewDeadLetter(entry, phase, err)
					dead[i] = &dl
				}
			}
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	report.Succeeded = int(succeeded.Load())
	report.Empty = int(empty.Load())
	report.Failed = int(failed.Load())

	var letters []resilience.DeadLetter
	for _, dl := range dead {
		if dl != nil {
			letters = append(letters, *dl)
		}
	}

	log.Info("batch complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("empty", report.Empty),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	if err := ctx.Err(); err != nil {
		return report, letters, eris.Wrap(err, "pipeline: batch cancelled")
	}
	return report, letters, nil
}
