package finance

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OverdueSweepService moves OPEN documents past their due date to OVERDUE.
// Running it more than once on the same day changes nothing.
type OverdueSweepService struct {
	repo     finance.MonetaryDocumentRepository
	location *time.Location
	now      func() time.Time
	metrics  *telemetry.FinanceMetrics
	logger   *zap.Logger
}

// NewOverdueSweepService creates a new OverdueSweepService. "Today" is evaluated in loc.
func NewOverdueSweepService(repo finance.MonetaryDocumentRepository, loc *time.Location, metrics *telemetry.FinanceMetrics, l *zap.Logger) *OverdueSweepService {
	if loc == nil {
		loc = time.UTC
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &OverdueSweepService{
		repo:     repo,
		location: loc,
		now:      time.Now,
		metrics:  metrics,
		logger:   l,
	}
}

// Sweep runs one sweep and reports how many documents it marked
func (s *OverdueSweepService) Sweep(ctx context.Context) (*SweepResponse, error) {
	today := valueobject.DateOf(s.now().In(s.location))

	ctx, span := telemetry.StartServiceSpan(ctx, "overdue_sweep", "run")
	defer span.End()

	log := logger.Enrich(ctx, logger.FromContextOr(ctx, s.logger))
	start := time.Now()

	marked, err := s.repo.MarkOverdue(ctx, today)
	elapsed := time.Since(start)
	s.metrics.RecordSweep(ctx, marked, elapsed, err)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("overdue sweep failed", zap.String("today", today.String()), zap.Error(err))
		return nil, asApplicationError("sweep", err)
	}

	telemetry.SetAttributes(span, telemetry.AttrMarkedOverdue.Int64(marked))
	log.Info("overdue sweep completed",
		zap.String("today", today.String()),
		zap.Int64("marked", marked),
		zap.Duration("elapsed", elapsed),
	)
	return &SweepResponse{Today: today, Marked: marked}, nil
}
