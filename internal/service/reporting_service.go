package service

import (
	"context"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// reportingService implements ports.ReportingService over the journal.
type reportingService struct {
	journal ports.JournalRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(journal ports.JournalRepository) ports.ReportingService {
	return &reportingService{journal: journal}
}

// GetSummary aggregates journal rows, optionally for one identity and period.
func (s *reportingService) GetSummary(ctx context.Context, identity *domain.Identity, period string) (*domain.JournalSummary, error) {
	var since *time.Time

	switch period {
	case "day":
		t := time.Now().AddDate(0, 0, -1)
		since = &t
	case "week":
		t := time.Now().AddDate(0, 0, -7)
		since = &t
	case "month":
		t := time.Now().AddDate(0, -1, 0)
		since = &t
	case "all", "":
		// No time filter
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	summary, err := s.journal.Summary(ctx, identity, since)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return summary, nil
}

// ListJournal returns a page of journal rows, newest first.
func (s *reportingService) ListJournal(ctx context.Context, params ports.JournalListParams) ([]domain.JournalEntry, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	if params.From != nil && params.To != nil && *params.From > *params.To {
		return nil, 0, apperror.Validation("from must not be after to")
	}

	entries, total, err := s.journal.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return entries, total, nil
}
