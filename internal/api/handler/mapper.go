package handler

import (
	"time"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateItemInput(req createItemRequest) ports.CreateItemInput {
	return ports.CreateItemInput{
		Title:         req.Title,
		Currency:      req.Currency,
		StartingPrice: req.StartingPrice,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}
}

func toVerificationFields(req verificationRequest) domain.VerificationFields {
	return domain.VerificationFields{
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		Nationality: req.Nationality,
		Phone:       req.Phone,
	}
}

// --- Service result → HTTP response ---

func toItemResponse(item *domain.Item, now time.Time) itemResponse {
	self := "/v1/items/" + item.ID
	return itemResponse{
		ID:            item.ID,
		Title:         item.Title,
		Currency:      item.Currency,
		StartingPrice: item.StartingPrice,
		StartTime:     item.StartTime,
		EndTime:       item.EndTime,
		State:         item.StateAt(now),
		Links: itemLinks{
			Self:   self,
			Status: self + "/status",
			Bids:   self + "/bids",
		},
	}
}

func toSubmitBidResponse(r *ports.BidResult) submitBidResponse {
	return submitBidResponse{
		ItemID:        r.ItemID,
		Amount:        r.Amount,
		SequenceIndex: r.Seq,
		Currency:      r.Currency,
	}
}
