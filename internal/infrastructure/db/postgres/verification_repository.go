package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const verificationColumns = `id, user_id, email, full_name, date_of_birth, nationality, phone,
	status, submitted_at, reviewed_at, reviewed_by, call_booked`

type VerificationRepository struct {
	db *pgxpool.Pool
}

var _ ports.VerificationRepository = (*VerificationRepository)(nil)

func NewVerificationRepository(db *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func scanVerification(row rowScanner) (*domain.VerificationRequest, error) {
	var (
		req    domain.VerificationRequest
		status string
	)
	err := row.Scan(
		&req.ID, &req.UserID, &req.Email,
		&req.Fields.FullName, &req.Fields.DateOfBirth, &req.Fields.Nationality, &req.Fields.Phone,
		&status, &req.SubmittedAt, &req.ReviewedAt, &req.ReviewedBy, &req.CallBooked,
	)
	if err != nil {
		return nil, err
	}
	req.Status = domain.VerificationStatus(status)
	req.SubmittedAt = req.SubmittedAt.UTC()
	if req.ReviewedAt != nil {
		t := req.ReviewedAt.UTC()
		req.ReviewedAt = &t
	}
	return &req, nil
}

func (r *VerificationRepository) FindByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	return r.findOne(ctx, "id", id)
}

func (r *VerificationRepository) FindByUserID(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	return r.findOne(ctx, "user_id", userID)
}

func (r *VerificationRepository) findOne(ctx context.Context, column, value string) (*domain.VerificationRequest, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx,
		"SELECT "+verificationColumns+" FROM verification_requests WHERE "+column+" = $1", value)
	req, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, storeErr("find verification", err)
	}
	return req, nil
}

// Upsert inserts or replaces the user's request. The WHERE clause on the
// conflict branch leaves an approved row untouched, which shows up as zero
// affected rows.
func (r *VerificationRepository) Upsert(ctx context.Context, req *domain.VerificationRequest) error {
	tag, err := getExecutor(ctx, r.db).Exec(ctx,
		`INSERT INTO verification_requests (`+verificationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id) DO UPDATE SET
		     email         = EXCLUDED.email,
		     full_name     = EXCLUDED.full_name,
		     date_of_birth = EXCLUDED.date_of_birth,
		     nationality   = EXCLUDED.nationality,
		     phone         = EXCLUDED.phone,
		     status        = EXCLUDED.status,
		     submitted_at  = EXCLUDED.submitted_at,
		     reviewed_at   = EXCLUDED.reviewed_at,
		     reviewed_by   = EXCLUDED.reviewed_by,
		     call_booked   = verification_requests.call_booked OR EXCLUDED.call_booked
		 WHERE verification_requests.status <> 'approved'`,
		req.ID, req.UserID, req.Email,
		req.Fields.FullName, req.Fields.DateOfBirth, req.Fields.Nationality, req.Fields.Phone,
		string(req.Status), req.SubmittedAt, req.ReviewedAt, req.ReviewedBy, req.CallBooked,
	)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return domain.ErrConflict
		}
		return storeErr("upsert verification", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyApproved
	}
	return nil
}

func (r *VerificationRepository) UpdateStatus(ctx context.Context, upd ports.StatusUpdate) (*domain.VerificationRequest, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx,
		`UPDATE verification_requests
		 SET status = $3, reviewed_at = $4, reviewed_by = $5
		 WHERE id = $1 AND status = $2
		 RETURNING `+verificationColumns,
		upd.RequestID, string(upd.From), string(upd.To), upd.ReviewedAt, upd.ReviewedBy)
	req, err := scanVerification(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeErr("update verification status", err)
	}

	if _, findErr := r.FindByID(ctx, upd.RequestID); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrNotPending
}

func (r *VerificationRepository) SetCallBooked(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	row := getExecutor(ctx, r.db).QueryRow(ctx,
		"UPDATE verification_requests SET call_booked = TRUE WHERE user_id = $1 RETURNING "+verificationColumns, userID)
	req, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, storeErr("set call booked", err)
	}
	return req, nil
}

func (r *VerificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error) {
	rows, err := getExecutor(ctx, r.db).Query(ctx,
		"SELECT "+verificationColumns+" FROM verification_requests WHERE status = $1 ORDER BY submitted_at, id",
		string(status))
	if err != nil {
		return nil, storeErr("list verifications", err)
	}
	defer rows.Close()

	reqs := []*domain.VerificationRequest{}
	for rows.Next() {
		req, err := scanVerification(rows)
		if err != nil {
			return nil, storeErr("scan verification", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list verifications", err)
	}
	return reqs, nil
}
