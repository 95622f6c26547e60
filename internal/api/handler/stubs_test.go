package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zyborn/auction-api/internal/api/middleware"
	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// newContext builds an echo context with the validator registered and, when
// caller is authenticated, the claims the auth middleware would set.
func newContext(method, target string, body io.Reader, caller ports.Caller) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if caller.Authenticated() {
		c.Set(middleware.CtxUserID, caller.UserID)
		c.Set(middleware.CtxDisplayName, caller.DisplayName)
		c.Set(middleware.CtxEmail, caller.Email)
		c.Set(middleware.CtxRole, caller.Role)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, displayName string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	profileFn  func(ctx context.Context, userID, displayName string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	return s.registerFn(ctx, email, password, displayName)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, userID, displayName string) (string, *domain.User, error) {
	return s.profileFn(ctx, userID, displayName)
}

type stubBidService struct {
	submitFn   func(ctx context.Context, in ports.SubmitBidInput) (*ports.BidResult, error)
	statusFn   func(ctx context.Context, itemID string) (*domain.LedgerStatus, error)
	historyFn  func(ctx context.Context, itemID string) ([]domain.Bid, error)
	increments domain.IncrementSet
}

func (s *stubBidService) SubmitBid(ctx context.Context, in ports.SubmitBidInput) (*ports.BidResult, error) {
	return s.submitFn(ctx, in)
}

func (s *stubBidService) GetStatus(ctx context.Context, itemID string) (*domain.LedgerStatus, error) {
	return s.statusFn(ctx, itemID)
}

func (s *stubBidService) History(ctx context.Context, itemID string) ([]domain.Bid, error) {
	return s.historyFn(ctx, itemID)
}

func (s *stubBidService) Increments() domain.IncrementSet { return s.increments }

type stubItemService struct {
	createFn func(ctx context.Context, in ports.CreateItemInput) (*domain.Item, error)
	getFn    func(ctx context.Context, id string) (*domain.Item, error)
	listFn   func(ctx context.Context) ([]*domain.Item, error)
}

func (s *stubItemService) CreateItem(ctx context.Context, in ports.CreateItemInput) (*domain.Item, error) {
	return s.createFn(ctx, in)
}

func (s *stubItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.getFn(ctx, id)
}

func (s *stubItemService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return s.listFn(ctx)
}

type stubVerificationService struct {
	submitFn    func(ctx context.Context, caller ports.Caller, f domain.VerificationFields) (*domain.VerificationRequest, error)
	getFn       func(ctx context.Context, userID string) (*domain.VerificationRequest, error)
	callFn      func(ctx context.Context, userID string) (*domain.VerificationRequest, error)
	reviewFn    func(ctx context.Context, in ports.ReviewInput) (*domain.VerificationRequest, error)
	listFn      func(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error)
	reconcileFn func(ctx context.Context) (int, error)
}

func (s *stubVerificationService) Submit(ctx context.Context, caller ports.Caller, f domain.VerificationFields) (*domain.VerificationRequest, error) {
	return s.submitFn(ctx, caller, f)
}

func (s *stubVerificationService) Get(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	return s.getFn(ctx, userID)
}

func (s *stubVerificationService) MarkCallBooked(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	return s.callFn(ctx, userID)
}

func (s *stubVerificationService) Review(ctx context.Context, in ports.ReviewInput) (*domain.VerificationRequest, error) {
	return s.reviewFn(ctx, in)
}

func (s *stubVerificationService) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error) {
	return s.listFn(ctx, status)
}

func (s *stubVerificationService) Reconcile(ctx context.Context) (int, error) {
	return s.reconcileFn(ctx)
}
