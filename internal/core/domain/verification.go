package domain

import "time"

// VerificationStatus is the review state of a bidder's KYC submission.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// VerificationFields are the personal details a bidder submits.
type VerificationFields struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Nationality string `json:"nationality"`
	Phone       string `json:"phone"`
}

// VerificationRequest is the single active KYC record of a user.
type VerificationRequest struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Email       string             `json:"email"`
	Fields      VerificationFields `json:"fields"`
	Status      VerificationStatus `json:"status"`
	SubmittedAt time.Time          `json:"submitted_at"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy  string             `json:"reviewed_by,omitempty"`
	CallBooked  bool               `json:"call_booked"`
}

// Resubmittable reports whether the user may overwrite this request.
// Approved requests are frozen apart from the call-booked annotation.
func (r *VerificationRequest) Resubmittable() bool {
	return r.Status != VerificationApproved
}
