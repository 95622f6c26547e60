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

const collectionItems = "items"

type itemDocument struct {
	ID            string               `bson:"_id"`
	Title         string               `bson:"title"`
	Currency      string               `bson:"currency"`
	StartingPrice primitive.Decimal128 `bson:"starting_price"`
	StartTime     *time.Time           `bson:"start_time,omitempty"`
	EndTime       time.Time            `bson:"end_time"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func (d *itemDocument) toDomain() (*domain.Item, error) {
	price, err := fromDecimal128(d.StartingPrice)
	if err != nil {
		return nil, err
	}
	item := &domain.Item{
		ID:            d.ID,
		Title:         d.Title,
		Currency:      d.Currency,
		StartingPrice: price,
		EndTime:       d.EndTime.UTC(),
		CreatedAt:     d.CreatedAt.UTC(),
	}
	if d.StartTime != nil {
		st := d.StartTime.UTC()
		item.StartTime = &st
	}
	return item, nil
}

type ItemRepository struct {
	col *mongo.Collection
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection(collectionItems)}
}

// Create inserts a new item document.
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	price, err := toDecimal128(item.StartingPrice)
	if err != nil {
		return err
	}
	doc := itemDocument{
		ID:            item.ID,
		Title:         item.Title,
		Currency:      item.Currency,
		StartingPrice: price,
		StartTime:     item.StartTime,
		EndTime:       item.EndTime,
		CreatedAt:     item.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return storeErr("insert item", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeErr("find item", err)
	}
	return doc.toDomain()
}

// List returns all items, soonest-closing first.
func (r *ItemRepository) List(ctx context.Context) ([]*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "end_time", Value: 1}}))
	if err != nil {
		return nil, storeErr("list items", err)
	}
	var docs []itemDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode items", err)
	}

	items := make([]*domain.Item, 0, len(docs))
	for i := range docs {
		item, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// EnsureIndexes creates necessary indexes on the items collection.
func (r *ItemRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "end_time", Value: 1}}})
	return err
}
