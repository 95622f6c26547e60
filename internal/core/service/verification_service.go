package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const dobLayout = "2006-01-02"

// VerificationConfig holds the deployment-configured date-of-birth window.
type VerificationConfig struct {
	DOBMinYear int
	DOBMaxYear int // 0 means the current year
}

type verificationForm struct {
	FullName    string `json:"full_name"     validate:"required,max=200"`
	DateOfBirth string `json:"date_of_birth" validate:"required,dob"`
	Nationality string `json:"nationality"   validate:"required,max=100"`
	Phone       string `json:"phone"         validate:"required,max=40"`
}

type VerificationService struct {
	verifications ports.VerificationRepository
	users         ports.UserRepository
	tx            ports.Transactor
	bus           ports.EventBus
	clock         ports.Clock
	cfg           VerificationConfig
	validate      *validator.Validate
	log           zerolog.Logger
}

func NewVerificationService(
	verifications ports.VerificationRepository,
	users ports.UserRepository,
	tx ports.Transactor,
	bus ports.EventBus,
	clock ports.Clock,
	cfg VerificationConfig,
	log zerolog.Logger,
) *VerificationService {
	s := &VerificationService{
		verifications: verifications,
		users:         users,
		tx:            tx,
		bus:           bus,
		clock:         clock,
		cfg:           cfg,
		log:           log,
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
		return s.validDateOfBirth(fl.Field().String())
	})
	s.validate = v

	return s
}

// yearRange returns the inclusive window of accepted birth years.
func (s *VerificationService) yearRange() (int, int) {
	maxYear := s.cfg.DOBMaxYear
	if maxYear == 0 {
		maxYear = s.clock.Now().Year()
	}
	return s.cfg.DOBMinYear, maxYear
}

func (s *VerificationService) validDateOfBirth(v string) bool {
	if len(v) != len(dobLayout) {
		return false
	}
	dob, err := time.Parse(dobLayout, v)
	if err != nil {
		return false
	}
	minYear, maxYear := s.yearRange()
	if dob.Year() < minYear || dob.Year() > maxYear {
		return false
	}
	return !dob.After(s.clock.Now())
}

func (s *VerificationService) validateFields(f domain.VerificationFields) (domain.VerificationFields, error) {
	form := verificationForm{
		FullName:    strings.TrimSpace(f.FullName),
		DateOfBirth: strings.TrimSpace(f.DateOfBirth),
		Nationality: strings.TrimSpace(f.Nationality),
		Phone:       strings.TrimSpace(f.Phone),
	}

	if err := s.validate.Struct(form); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return domain.VerificationFields{}, err
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = s.fieldMessage(fe)
		}
		return domain.VerificationFields{}, domain.NewValidationError(fields)
	}

	return domain.VerificationFields{
		FullName:    form.FullName,
		DateOfBirth: form.DateOfBirth,
		Nationality: form.Nationality,
		Phone:       form.Phone,
	}, nil
}

func (s *VerificationService) fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "dob":
		minYear, maxYear := s.yearRange()
		return fmt.Sprintf("%s must be a real date (YYYY-MM-DD) with a year between %d and %d", fe.Field(), minYear, maxYear)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag())
	}
}

// Submit validates the form and stores it as the caller's pending request.
// Pending requests are overwritten, rejected ones re-opened, approved ones
// refused with domain.ErrAlreadyApproved.
func (s *VerificationService) Submit(ctx context.Context, caller ports.Caller, fields domain.VerificationFields) (*domain.VerificationRequest, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrAuthRequired
	}

	clean, err := s.validateFields(fields)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("submit verification: %w", err)
	}

	existing, err := s.verifications.FindByUserID(ctx, caller.UserID)
	if err != nil && !errors.Is(err, domain.ErrVerificationNotFound) {
		return nil, fmt.Errorf("submit verification: %w", err)
	}

	req := &domain.VerificationRequest{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Email:       user.Email,
		Fields:      clean,
		Status:      domain.VerificationPending,
		SubmittedAt: s.clock.Now(),
	}
	if existing != nil {
		if !existing.Resubmittable() {
			return nil, domain.ErrAlreadyApproved
		}
		req.ID = existing.ID
		req.CallBooked = existing.CallBooked
	}

	// The repository refuses to replace an approved request, which also
	// covers an approval committed after the read above.
	if err := s.verifications.Upsert(ctx, req); err != nil {
		if errors.Is(err, domain.ErrAlreadyApproved) {
			return nil, err
		}
		return nil, fmt.Errorf("submit verification: %w", err)
	}

	s.log.Info().Str("user_id", req.UserID).Str("request_id", req.ID).Msg("verification submitted")
	s.publish(ctx, domain.EventVerificationSubmitted, req)

	return req, nil
}

// Get returns the user's own request.
func (s *VerificationService) Get(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	req, err := s.verifications.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	return req, nil
}

// MarkCallBooked annotates the request; the status is left untouched.
func (s *VerificationService) MarkCallBooked(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	req, err := s.verifications.SetCallBooked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("mark call booked: %w", err)
	}
	s.publish(ctx, domain.EventVerificationCallBooked, req)
	return req, nil
}

// Review moves a pending request to approved or rejected. An approval sets
// the user's approval flag in the same unit of work. If the store cannot make
// the two writes atomic and only the first one landed, the result is
// domain.ErrPartialFailure and Reconcile repairs it.
func (s *VerificationService) Review(ctx context.Context, in ports.ReviewInput) (*domain.VerificationRequest, error) {
	if in.Decision != domain.VerificationApproved && in.Decision != domain.VerificationRejected {
		return nil, domain.ErrInvalidDecision
	}

	var (
		updated       *domain.VerificationRequest
		statusWritten bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.verifications.FindByID(ctx, in.RequestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case domain.VerificationApproved:
			return domain.ErrAlreadyApproved
		case domain.VerificationRejected:
			return domain.ErrNotPending
		}

		updated, err = s.verifications.UpdateStatus(ctx, ports.StatusUpdate{
			RequestID:  req.ID,
			From:       domain.VerificationPending,
			To:         in.Decision,
			ReviewedAt: s.clock.Now(),
			ReviewedBy: in.ReviewerID,
		})
		if err != nil {
			return err
		}
		statusWritten = true

		if in.Decision == domain.VerificationApproved {
			if err := s.users.SetApprovedToBid(ctx, req.UserID, true); err != nil {
				return fmt.Errorf("set approval flag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if statusWritten && !s.tx.Atomic() {
			s.log.Error().
				Err(err).
				Str("request_id", in.RequestID).
				Str("decision", string(in.Decision)).
				Msg("review partially applied, approval flag needs reconciliation")
			return nil, fmt.Errorf("review %s: %w: %w", in.RequestID, domain.ErrPartialFailure, err)
		}
		return nil, fmt.Errorf("review %s: %w", in.RequestID, err)
	}

	s.log.Info().
		Str("request_id", updated.ID).
		Str("user_id", updated.UserID).
		Str("decision", string(updated.Status)).
		Str("reviewer_id", in.ReviewerID).
		Msg("verification reviewed")
	s.publish(ctx, domain.EventVerificationReviewed, updated)

	return updated, nil
}

// ListByStatus returns the review queue for status, oldest first.
func (s *VerificationService) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError(map[string]string{
			"status": "status must be one of: pending approved rejected",
		})
	}
	reqs, err := s.verifications.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	return reqs, nil
}

// Reconcile sets the approval flag of every user whose request is approved
// but whose flag was never written. It returns the number of users repaired.
func (s *VerificationService) Reconcile(ctx context.Context) (int, error) {
	approved, err := s.verifications.ListByStatus(ctx, domain.VerificationApproved)
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}

	fixed := 0
	for _, req := range approved {
		user, err := s.users.FindByID(ctx, req.UserID)
		if err != nil {
			return fixed, fmt.Errorf("reconcile: load user %s: %w", req.UserID, err)
		}
		if user.ApprovedToBid {
			continue
		}
		if err := s.users.SetApprovedToBid(ctx, req.UserID, true); err != nil {
			return fixed, fmt.Errorf("reconcile: set approval flag for %s: %w", req.UserID, err)
		}
		fixed++
		s.log.Warn().Str("user_id", req.UserID).Str("request_id", req.ID).Msg("approval flag reconciled")
	}
	return fixed, nil
}

// Subscribe calls fn for every verification change, in per-user order.
func (s *VerificationService) Subscribe(fn ports.EventHandler) (unsubscribe func()) {
	return s.bus.Subscribe("verification.", fn)
}

func (s *VerificationService) publish(ctx context.Context, typ domain.EventType, req *domain.VerificationRequest) {
	snapshot := *req
	event := domain.Event{
		Type:         typ,
		Key:          req.UserID,
		OccurredAt:   s.clock.Now(),
		Verification: &snapshot,
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("user_id", req.UserID).Str("type", string(typ)).Msg("failed to publish verification event")
	}
}
