package dto

import "crowdfund-ledger/internal/core/domain"

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Identity string `json:"identity" binding:"required,identity"`
	Password string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
}

type LoginRequest struct {
	Identity string `json:"identity" binding:"required,identity"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

type RegisterResponse struct {
	Identity  string `json:"identity"`
	CreatedAt string `json:"created_at"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ContributeRequest carries the value in the smallest native unit as a
// decimal string; JSON numbers cannot hold every uint64.
type ContributeRequest struct {
	Value string `json:"value" binding:"required,amount"`
}

type ContributionOfResponse struct {
	Identity string        `json:"identity"`
	Amount   domain.Amount `json:"amount"`
}

type ContributorCountResponse struct {
	Count int `json:"count"`
}

type ContributorResponse struct {
	Index    int    `json:"index"`
	Identity string `json:"identity"`
}

// JournalListResponse wraps a page of journal entries.
type JournalListResponse struct {
	Items      []domain.JournalEntry `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

type JournalSummaryResponse struct {
	Period string `json:"period"`
	domain.JournalSummary
}
