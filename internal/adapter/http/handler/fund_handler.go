package handler

import (
	"errors"
	"strconv"

	"crowdfund-ledger/internal/adapter/http/dto"
	"crowdfund-ledger/internal/adapter/http/middleware"
	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/pkg/apperror"
	"crowdfund-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxIdempotencyKeyLength = 128

// FundHandler exposes the funding pool.
type FundHandler struct {
	fundingSvc ports.FundingService
}

func NewFundHandler(fundingSvc ports.FundingService) *FundHandler {
	return &FundHandler{fundingSvc: fundingSvc}
}

// GetFund handles GET /api/v1/fund.
func (h *FundHandler) GetFund(c *gin.Context) {
	response.OK(c, h.fundingSvc.Summary())
}

// ContributionOf handles GET /api/v1/fund/contributions/:identity.
// Unknown identities report zero.
func (h *FundHandler) ContributionOf(c *gin.Context) {
	identity := domain.Identity(c.Param("identity"))
	if err := identity.Validate(); err != nil {
		response.Error(c, apperror.Validation("invalid identity"))
		return
	}

	response.OK(c, dto.ContributionOfResponse{
		Identity: identity.String(),
		Amount:   h.fundingSvc.ContributionOf(identity),
	})
}

// ContributorCount handles GET /api/v1/fund/contributors.
func (h *FundHandler) ContributorCount(c *gin.Context) {
	response.OK(c, dto.ContributorCountResponse{Count: h.fundingSvc.ContributorCount()})
}

// ContributorAt handles GET /api/v1/fund/contributors/:index.
func (h *FundHandler) ContributorAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, apperror.Validation("index must be an integer"))
		return
	}

	who, err := h.fundingSvc.ContributorAt(index)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ContributorResponse{Index: index, Identity: who.String()})
}

// Contribute handles POST /api/v1/fund/contributions. The caller is the
// authenticated identity; the body only carries the value.
func (h *FundHandler) Contribute(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	value, err := domain.ParseAmount(req.Value)
	switch {
	case errors.Is(err, domain.ErrNegativeAmount):
		response.Error(c, apperror.ErrInsufficientValue())
		return
	case err != nil:
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	idempotencyKey := c.GetHeader(middleware.HeaderIdempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		response.Error(c, apperror.Validation("Idempotency-Key is too long"))
		return
	}

	receipt, err := h.fundingSvc.Contribute(c.Request.Context(), domain.ContributionRequest{
		Caller:         caller,
		Value:          value,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, receipt)
}

// Withdraw handles POST /api/v1/fund/withdrawals.
func (h *FundHandler) Withdraw(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	w, err := h.fundingSvc.Withdraw(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, w)
}
