package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const collectionBids = "bids"

type bidDocument struct {
	ItemID   string               `bson:"item_id"`
	Seq      int64                `bson:"seq"`
	Amount   primitive.Decimal128 `bson:"amount"`
	BidderID string               `bson:"bidder_id"`
	PlacedAt time.Time            `bson:"placed_at"`
}

func (d *bidDocument) toDomain() (domain.Bid, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return domain.Bid{}, err
	}
	return domain.Bid{
		ItemID:   d.ItemID,
		Seq:      d.Seq,
		Amount:   amount,
		BidderID: d.BidderID,
		PlacedAt: d.PlacedAt.UTC(),
	}, nil
}

// BidRepository stores one document per ledger entry. The unique
// (item_id, seq) index is what makes concurrent appends safe.
type BidRepository struct {
	col *mongo.Collection
}

var _ ports.BidRepository = (*BidRepository)(nil)

func NewBidRepository(db *mongo.Database) *BidRepository {
	return &BidRepository{col: db.Collection(collectionBids)}
}

func (r *BidRepository) Latest(ctx context.Context, itemID string) (*domain.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	var doc bidDocument
	if err := r.col.FindOne(ctx, bson.M{"item_id": itemID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeErr("find latest bid", err)
	}
	bid, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// Insert writes the bid; a duplicate (item_id, seq) means another bid won the slot.
func (r *BidRepository) Insert(ctx context.Context, bid *domain.Bid) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	amount, err := toDecimal128(bid.Amount)
	if err != nil {
		return err
	}
	doc := bidDocument{
		ItemID:   bid.ItemID,
		Seq:      bid.Seq,
		Amount:   amount,
		BidderID: bid.BidderID,
		PlacedAt: bid.PlacedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return storeErr("insert bid", err)
	}
	return nil
}

func (r *BidRepository) ListByItem(ctx context.Context, itemID string) ([]domain.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"item_id": itemID}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, storeErr("list bids", err)
	}
	var docs []bidDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode bids", err)
	}

	bids := make([]domain.Bid, 0, len(docs))
	for i := range docs {
		bid, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

// EnsureIndexes creates the unique ledger slot index on the bids collection.
func (r *BidRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "item_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("item_seq_unique"),
	})
	return err
}
