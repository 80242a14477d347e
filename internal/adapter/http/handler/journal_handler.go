package handler

import (
	"strconv"

	"crowdfund-ledger/internal/adapter/http/dto"
	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/pkg/apperror"
	"crowdfund-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// JournalHandler serves the contribution history.
type JournalHandler struct {
	reportingSvc ports.ReportingService
}

func NewJournalHandler(reportingSvc ports.ReportingService) *JournalHandler {
	return &JournalHandler{reportingSvc: reportingSvc}
}

// List handles GET /api/v1/fund/journal.
func (h *JournalHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.JournalListParams{Page: page, PageSize: pageSize}

	if v := c.Query("identity"); v != "" {
		identity := domain.Identity(v)
		if err := identity.Validate(); err != nil {
			response.Error(c, apperror.Validation("invalid identity"))
			return
		}
		params.Identity = &identity
	}
	if v := c.Query("type"); v != "" {
		typ := domain.EntryType(v)
		switch typ {
		case domain.EntryTypeContribution, domain.EntryTypeWithdrawal, domain.EntryTypeSettlement:
		default:
			response.Error(c, apperror.Validation("type must be CONTRIBUTION, WITHDRAWAL or SETTLEMENT"))
			return
		}
		params.Type = &typ
	}
	var ok bool
	if params.From, ok = unixQuery(c, "from"); !ok {
		return
	}
	if params.To, ok = unixQuery(c, "to"); !ok {
		return
	}

	entries, total, err := h.reportingSvc.ListJournal(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}

	response.OK(c, dto.JournalListResponse{
		Items:      entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	})
}

// Summary handles GET /api/v1/fund/journal/summary?period=day|week|month|all.
func (h *JournalHandler) Summary(c *gin.Context) {
	period := c.DefaultQuery("period", "all")

	var identity *domain.Identity
	if v := c.Query("identity"); v != "" {
		id := domain.Identity(v)
		if err := id.Validate(); err != nil {
			response.Error(c, apperror.Validation("invalid identity"))
			return
		}
		identity = &id
	}

	summary, err := h.reportingSvc.GetSummary(c.Request.Context(), identity, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.JournalSummaryResponse{Period: period, JournalSummary: *summary})
}

// unixQuery parses an optional Unix timestamp query parameter. It writes the
// error response itself and reports false when the value is malformed.
func unixQuery(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation(name+" must be a Unix timestamp"))
		return nil, false
	}
	return &v, true
}
