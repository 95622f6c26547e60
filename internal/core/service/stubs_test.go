package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock { return &fixedClock{now: now} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type stubItemRepo struct {
	mu      sync.Mutex
	items   map[string]*domain.Item
	findErr error
	finds   int
}

func newStubItemRepo(items ...*domain.Item) *stubItemRepo {
	r := &stubItemRepo{items: make(map[string]*domain.Item)}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *stubItemRepo) Create(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *item
	r.items[item.ID] = &clone
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *stubItemRepo) List(_ context.Context) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Item, 0, len(r.items))
	for _, it := range r.items {
		clone := *it
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

// stubBidRepo mirrors the unique (item_id, seq) constraint of the real stores.
type stubBidRepo struct {
	mu      sync.Mutex
	bids    map[string][]domain.Bid
	inserts int

	// afterLatest runs outside the lock after every Latest read; tests use it
	// to line up concurrent submissions.
	afterLatest func()
}

func newStubBidRepo() *stubBidRepo {
	return &stubBidRepo{bids: make(map[string][]domain.Bid)}
}

func (r *stubBidRepo) Latest(_ context.Context, itemID string) (*domain.Bid, error) {
	r.mu.Lock()
	var latest *domain.Bid
	if bids := r.bids[itemID]; len(bids) > 0 {
		b := bids[len(bids)-1]
		latest = &b
	}
	r.mu.Unlock()

	if r.afterLatest != nil {
		r.afterLatest()
	}
	return latest, nil
}

func (r *stubBidRepo) Insert(_ context.Context, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int64(len(r.bids[bid.ItemID]))+1 != bid.Seq {
		return domain.ErrConflict
	}
	r.bids[bid.ItemID] = append(r.bids[bid.ItemID], *bid)
	r.inserts++
	return nil
}

func (r *stubBidRepo) ListByItem(_ context.Context, itemID string) ([]domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Bid(nil), r.bids[itemID]...), nil
}

func (r *stubBidRepo) count(itemID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bids[itemID])
}

type stubUserRepo struct {
	mu             sync.Mutex
	users          map[string]*domain.User
	findErrs       []error // consumed one per FindByID call
	setApprovedErr error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.findErrs) > 0 {
		err := r.findErrs[0]
		r.findErrs = r.findErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.DisplayName = displayName
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) SetApprovedToBid(_ context.Context, id string, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setApprovedErr != nil {
		return r.setApprovedErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ApprovedToBid = approved
	return nil
}

func (r *stubUserRepo) approved(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return ok && u.ApprovedToBid
}

type stubVerificationRepo struct {
	mu     sync.Mutex
	byUser map[string]*domain.VerificationRequest
}

func newStubVerificationRepo() *stubVerificationRepo {
	return &stubVerificationRepo{byUser: make(map[string]*domain.VerificationRequest)}
}

func cloneRequest(r *domain.VerificationRequest) *domain.VerificationRequest {
	c := *r
	return &c
}

func (r *stubVerificationRepo) FindByID(_ context.Context, id string) (*domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.byUser {
		if req.ID == id {
			return cloneRequest(req), nil
		}
	}
	return nil, domain.ErrVerificationNotFound
}

func (r *stubVerificationRepo) FindByUserID(_ context.Context, userID string) (*domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byUser[userID]
	if !ok {
		return nil, domain.ErrVerificationNotFound
	}
	return cloneRequest(req), nil
}

func (r *stubVerificationRepo) Upsert(_ context.Context, req *domain.VerificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[req.UserID]; ok && cur.Status == domain.VerificationApproved {
		return domain.ErrAlreadyApproved
	}
	r.byUser[req.UserID] = cloneRequest(req)
	return nil
}

func (r *stubVerificationRepo) UpdateStatus(_ context.Context, upd ports.StatusUpdate) (*domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.byUser {
		if req.ID != upd.RequestID {
			continue
		}
		if req.Status != upd.From {
			return nil, domain.ErrNotPending
		}
		req.Status = upd.To
		at := upd.ReviewedAt
		req.ReviewedAt = &at
		req.ReviewedBy = upd.ReviewedBy
		return cloneRequest(req), nil
	}
	return nil, domain.ErrVerificationNotFound
}

func (r *stubVerificationRepo) SetCallBooked(_ context.Context, userID string) (*domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byUser[userID]
	if !ok {
		return nil, domain.ErrVerificationNotFound
	}
	req.CallBooked = true
	return cloneRequest(req), nil
}

func (r *stubVerificationRepo) ListByStatus(_ context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.VerificationRequest
	for _, req := range r.byUser {
		if req.Status == status {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// stubTransactor runs fn inline. atomic only changes what Atomic reports.
type stubTransactor struct {
	atomic bool
}

func (t stubTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (t stubTransactor) Atomic() bool { return t.atomic }

// recordingBus delivers synchronously and keeps every published event.
type recordingBus struct {
	mu         sync.Mutex
	events     []domain.Event
	publishErr error
	subs       map[int]struct {
		prefix string
		fn     ports.EventHandler
	}
	next int
}

func newRecordingBus() *recordingBus {
	return &recordingBus{subs: make(map[int]struct {
		prefix string
		fn     ports.EventHandler
	})}
}

func (b *recordingBus) Publish(ctx context.Context, e domain.Event) error {
	b.mu.Lock()
	if b.publishErr != nil {
		b.mu.Unlock()
		return b.publishErr
	}
	b.events = append(b.events, e)
	var fns []ports.EventHandler
	for _, s := range b.subs {
		if strings.HasPrefix(string(e.Type), s.prefix) {
			fns = append(fns, s.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, e)
	}
	return nil
}

func (b *recordingBus) Subscribe(prefix string, fn ports.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = struct {
		prefix string
		fn     ports.EventHandler
	}{prefix, fn}
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *recordingBus) types() []domain.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.EventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}
