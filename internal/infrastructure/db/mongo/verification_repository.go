package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const collectionVerifications = "verification_requests"

type verificationFieldsDocument struct {
	FullName    string `bson:"full_name"`
	DateOfBirth string `bson:"date_of_birth"`
	Nationality string `bson:"nationality"`
	Phone       string `bson:"phone"`
}

type verificationDocument struct {
	ID          string                     `bson:"_id"`
	UserID      string                     `bson:"user_id"`
	Email       string                     `bson:"email"`
	Fields      verificationFieldsDocument `bson:"fields"`
	Status      string                     `bson:"status"`
	SubmittedAt time.Time                  `bson:"submitted_at"`
	ReviewedAt  *time.Time                 `bson:"reviewed_at,omitempty"`
	ReviewedBy  string                     `bson:"reviewed_by,omitempty"`
	CallBooked  bool                       `bson:"call_booked"`
}

func newVerificationDocument(req *domain.VerificationRequest) verificationDocument {
	return verificationDocument{
		ID:     req.ID,
		UserID: req.UserID,
		Email:  req.Email,
		Fields: verificationFieldsDocument{
			FullName:    req.Fields.FullName,
			DateOfBirth: req.Fields.DateOfBirth,
			Nationality: req.Fields.Nationality,
			Phone:       req.Fields.Phone,
		},
		Status:      string(req.Status),
		SubmittedAt: req.SubmittedAt,
		ReviewedAt:  req.ReviewedAt,
		ReviewedBy:  req.ReviewedBy,
		CallBooked:  req.CallBooked,
	}
}

func (d *verificationDocument) toDomain() *domain.VerificationRequest {
	req := &domain.VerificationRequest{
		ID:     d.ID,
		UserID: d.UserID,
		Email:  d.Email,
		Fields: domain.VerificationFields{
			FullName:    d.Fields.FullName,
			DateOfBirth: d.Fields.DateOfBirth,
			Nationality: d.Fields.Nationality,
			Phone:       d.Fields.Phone,
		},
		Status:      domain.VerificationStatus(d.Status),
		SubmittedAt: d.SubmittedAt.UTC(),
		ReviewedBy:  d.ReviewedBy,
		CallBooked:  d.CallBooked,
	}
	if d.ReviewedAt != nil {
		t := d.ReviewedAt.UTC()
		req.ReviewedAt = &t
	}
	return req
}

type VerificationRepository struct {
	col *mongo.Collection
}

var _ ports.VerificationRepository = (*VerificationRepository)(nil)

func NewVerificationRepository(db *mongo.Database) *VerificationRepository {
	return &VerificationRepository{col: db.Collection(collectionVerifications)}
}

func (r *VerificationRepository) FindByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *VerificationRepository) FindByUserID(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *VerificationRepository) findOne(ctx context.Context, filter bson.M) (*domain.VerificationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc verificationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, storeErr("find verification", err)
	}
	return doc.toDomain(), nil
}

// Upsert replaces the user's request unless it is already approved. An
// approved document does not match the filter, so the upsert falls through
// to an insert that trips the unique user_id index.
func (r *VerificationRepository) Upsert(ctx context.Context, req *domain.VerificationRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"user_id": req.UserID,
		"status":  bson.M{"$ne": string(domain.VerificationApproved)},
	}
	_, err := r.col.ReplaceOne(ctx, filter, newVerificationDocument(req), options.Replace().SetUpsert(true))
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return storeErr("upsert verification", err)
	}

	stored, findErr := r.FindByUserID(ctx, req.UserID)
	if findErr == nil && stored.Status == domain.VerificationApproved {
		return domain.ErrAlreadyApproved
	}
	return domain.ErrConflict
}

// UpdateStatus applies the transition only when the stored status is upd.From.
func (r *VerificationRepository) UpdateStatus(ctx context.Context, upd ports.StatusUpdate) (*domain.VerificationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": upd.RequestID, "status": string(upd.From)}
	update := bson.M{"$set": bson.M{
		"status":      string(upd.To),
		"reviewed_at": upd.ReviewedAt,
		"reviewed_by": upd.ReviewedBy,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc verificationDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeErr("update verification status", err)
	}

	if _, findErr := r.FindByID(ctx, upd.RequestID); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrNotPending
}

func (r *VerificationRepository) SetCallBooked(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc verificationDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"call_booked": true}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, storeErr("set call booked", err)
	}
	return doc.toDomain(), nil
}

func (r *VerificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"status": string(status)}, opts)
	if err != nil {
		return nil, storeErr("list verifications", err)
	}
	var docs []verificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode verifications", err)
	}

	reqs := make([]*domain.VerificationRequest, 0, len(docs))
	for i := range docs {
		reqs = append(reqs, docs[i].toDomain())
	}
	return reqs, nil
}

// EnsureIndexes creates indexes on the verification_requests collection.
func (r *VerificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
