package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/mailer"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
)

// DailySummaryConfig holds the dependencies for the summary goroutine.
type DailySummaryConfig struct {
	TechnicianRepo repository.TechnicianRepository
	TicketRepo     repository.TicketRepository
	Mailer         mailer.Mailer
	Logger         *zap.Logger
	Interval       time.Duration
}

// StartDailySummary launches a background goroutine that periodically mails
// each technician their pending workload and the tickets they closed since
// midnight. It respects the context for graceful shutdown.
func StartDailySummary(ctx context.Context, cfg DailySummaryConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		cfg.Logger.Info("daily summary worker started", zap.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				cfg.Logger.Info("daily summary worker shutting down")
				return
			case <-ticker.C:
				sendSummaries(ctx, cfg)
			}
		}
	}()
}

func sendSummaries(ctx context.Context, cfg DailySummaryConfig) {
	technicians, err := cfg.TechnicianRepo.List(ctx)
	if err != nil {
		cfg.Logger.Error("daily summary: technician listing failed", zap.Error(err))
		return
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, technician := range technicians {
		open, err := cfg.TicketRepo.CountByTechnicianAndStatus(ctx, technician.ID, domain.TicketStatusOpen)
		if err != nil {
			cfg.Logger.Error("daily summary: open count failed",
				zap.String("technician_id", technician.ID), zap.Error(err))
			continue
		}
		inProgress, err := cfg.TicketRepo.CountByTechnicianAndStatus(ctx, technician.ID, domain.TicketStatusInProgress)
		if err != nil {
			cfg.Logger.Error("daily summary: in-progress count failed",
				zap.String("technician_id", technician.ID), zap.Error(err))
			continue
		}
		closedToday, err := cfg.TicketRepo.CountClosedSince(ctx, technician.ID, midnight)
		if err != nil {
			cfg.Logger.Error("daily summary: closed count failed",
				zap.String("technician_id", technician.ID), zap.Error(err))
			continue
		}

		pending := open + inProgress
		if pending == 0 && closedToday == 0 {
			continue
		}
		if err := cfg.Mailer.SendTechnicianDailySummary(ctx,
			technician.Email, technician.Name, pending, closedToday); err != nil {
			cfg.Logger.Warn("daily summary: mail failed",
				zap.String("technician_id", technician.ID), zap.Error(err))
		}
	}
}
