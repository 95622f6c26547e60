package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const userColumns = "id, display_name, email, password_hash, role, approved_to_bid, created_at, updated_at"

type UserRepository struct {
	db *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.PasswordHash, &u.Role, &u.ApprovedToBid, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx,
		`INSERT INTO users (id, display_name, email, password_hash, role, approved_to_bid, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role, user.ApprovedToBid, user.CreatedAt, user.UpdatedAt)
	created, err := scanUser(row)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, storeErr("insert user", err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*domain.User, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("find user", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateDisplayName(ctx context.Context, id, displayName string) (*domain.User, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx,
		"UPDATE users SET display_name = $2, updated_at = $3 WHERE id = $1 RETURNING "+userColumns,
		id, displayName, time.Now().UTC())
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("update display name", err)
	}
	return user, nil
}

func (r *UserRepository) SetApprovedToBid(ctx context.Context, id string, approved bool) error {
	tag, err := getExecutor(ctx, r.db).Exec(ctx,
		"UPDATE users SET approved_to_bid = $2, updated_at = $3 WHERE id = $1",
		id, approved, time.Now().UTC())
	if err != nil {
		return storeErr("set approval flag", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
