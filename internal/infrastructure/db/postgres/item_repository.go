package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const itemColumns = "id, title, currency, starting_price::text, start_time, end_time, created_at"

type ItemRepository struct {
	db *pgxpool.Pool
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item  domain.Item
		price string
	)
	if err := row.Scan(&item.ID, &item.Title, &item.Currency, &price, &item.StartTime, &item.EndTime, &item.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("decode starting price %q: %w", price, err)
	}
	item.StartingPrice = d
	item.EndTime = item.EndTime.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	if item.StartTime != nil {
		st := item.StartTime.UTC()
		item.StartTime = &st
	}
	return &item, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	_, err := getExecutor(ctx, r.db).Exec(ctx,
		`INSERT INTO items (id, title, currency, starting_price, start_time, end_time, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		item.ID, item.Title, item.Currency, item.StartingPrice.String(), item.StartTime, item.EndTime, item.CreatedAt)
	if err != nil {
		return storeErr("insert item", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx, "SELECT "+itemColumns+" FROM items WHERE id = $1", id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeErr("find item", err)
	}
	return item, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := getExecutor(ctx, r.db).Query(ctx, "SELECT "+itemColumns+" FROM items ORDER BY end_time, id")
	if err != nil {
		return nil, storeErr("list items", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storeErr("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list items", err)
	}
	return items, nil
}
