package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the HTTP error handler.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Auth ---

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Items and bids ---

type createItemRequest struct {
	Title         string          `json:"title"          validate:"required,max=200"`
	Currency      string          `json:"currency"       validate:"required,len=3"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     *time.Time      `json:"start_time,omitempty"`
	EndTime       time.Time       `json:"end_time"       validate:"required"`
}

type itemResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Currency      string              `json:"currency"`
	StartingPrice decimal.Decimal     `json:"starting_price"`
	StartTime     *time.Time          `json:"start_time,omitempty"`
	EndTime       time.Time           `json:"end_time"`
	State         domain.AuctionState `json:"state"`
	Links         itemLinks           `json:"_links"`
}

type itemLinks struct {
	Self   string `json:"self"`
	Status string `json:"status"`
	Bids   string `json:"bids"`
}

type submitBidRequest struct {
	Increment decimal.Decimal `json:"increment"`
}

type submitBidResponse struct {
	ItemID        string          `json:"item_id"`
	Amount        decimal.Decimal `json:"amount"`
	SequenceIndex int64           `json:"sequence_index"`
	Currency      string          `json:"currency"`
}

type statusResponse struct {
	ItemID   string          `json:"item_id"`
	Amount   decimal.Decimal `json:"amount"`
	BidCount int64           `json:"bid_count"`
}

type historyResponse struct {
	ItemID string       `json:"item_id"`
	Bids   []domain.Bid `json:"bids"`
}

type incrementsResponse struct {
	Increments []domain.Increment `json:"increments"`
}

// --- Verification ---

type verificationRequest struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
	Phone       string `json:"phone"`
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

type verificationListResponse struct {
	Status   domain.VerificationStatus     `json:"status"`
	Requests []*domain.VerificationRequest `json:"requests"`
}

type reconcileResponse struct {
	Reconciled int `json:"reconciled"`
}
