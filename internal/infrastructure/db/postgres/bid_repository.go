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

const bidColumns = "item_id, seq, amount::text, bidder_id, placed_at"

// BidRepository stores the ledger in the bids table; its (item_id, seq)
// primary key rejects a second writer for the same slot.
type BidRepository struct {
	db *pgxpool.Pool
}

var _ ports.BidRepository = (*BidRepository)(nil)

func NewBidRepository(db *pgxpool.Pool) *BidRepository {
	return &BidRepository{db: db}
}

func scanBid(row rowScanner) (domain.Bid, error) {
	var (
		bid    domain.Bid
		amount string
	)
	if err := row.Scan(&bid.ItemID, &bid.Seq, &amount, &bid.BidderID, &bid.PlacedAt); err != nil {
		return domain.Bid{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Bid{}, fmt.Errorf("decode amount %q: %w", amount, err)
	}
	bid.Amount = d
	bid.PlacedAt = bid.PlacedAt.UTC()
	return bid, nil
}

func (r *BidRepository) Latest(ctx context.Context, itemID string) (*domain.Bid, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx,
		"SELECT "+bidColumns+" FROM bids WHERE item_id = $1 ORDER BY seq DESC LIMIT 1", itemID)
	bid, err := scanBid(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("find latest bid", err)
	}
	return &bid, nil
}

func (r *BidRepository) Insert(ctx context.Context, bid *domain.Bid) error {
	_, err := getExecutor(ctx, r.db).Exec(ctx,
		`INSERT INTO bids (item_id, seq, amount, bidder_id, placed_at)
		 VALUES ($1, $2, $3::numeric, $4, $5)`,
		bid.ItemID, bid.Seq, bid.Amount.String(), bid.BidderID, bid.PlacedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return domain.ErrConflict
		case codeForeignKeyViolation:
			return domain.ErrItemNotFound
		}
		return storeErr("insert bid", err)
	}
	return nil
}

func (r *BidRepository) ListByItem(ctx context.Context, itemID string) ([]domain.Bid, error) {
	rows, err := getExecutor(ctx, r.db).Query(ctx,
		"SELECT "+bidColumns+" FROM bids WHERE item_id = $1 ORDER BY seq", itemID)
	if err != nil {
		return nil, storeErr("list bids", err)
	}
	defer rows.Close()

	bids := []domain.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, storeErr("scan bid", err)
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list bids", err)
	}
	return bids, nil
}
