package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// VerificationRepo stores one pending handshake row per email.
type VerificationRepo struct {
	db *sql.DB
}

func NewVerificationRepo(db *sql.DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Upsert replaces any earlier row for email, so only the newest code and
// token are ever valid.
func (r *VerificationRepo) Upsert(ctx context.Context, email string, code int, token string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrMissingField("Email is required", "email")
	}

	const q = `
INSERT INTO email_verification (email, code, token, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (email) DO UPDATE
SET code = EXCLUDED.code, token = EXCLUDED.token, created_at = now();`

	if _, err := r.db.ExecContext(ctx, q, email, code, token); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, email string) (domain.PendingVerification, error) {
	email = strings.TrimSpace(email)

	const q = `
SELECT email, code, token, created_at
FROM email_verification
WHERE email = $1;`

	var (
		pv   domain.PendingVerification
		code sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, email).Scan(&pv.Email, &code, &pv.Token, &pv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PendingVerification{}, domain.ErrVerificationNotFound()
		}
		return domain.PendingVerification{}, domain.ErrDBUnavailable(err)
	}
	if code.Valid {
		c := int(code.Int64)
		pv.Code = &c
	}
	return pv, nil
}

// MarkVerified clears the code and swaps in newToken, but only while the row
// still holds expectedToken and an unconsumed code. A concurrent resend or a
// second verify therefore affects zero rows and yields not-found.
func (r *VerificationRepo) MarkVerified(ctx context.Context, email, expectedToken, newToken string) error {
	const q = `
UPDATE email_verification
SET token = $3, code = NULL
WHERE email = $1 AND token = $2 AND code IS NOT NULL;`

	res, err := r.db.ExecContext(ctx, q, strings.TrimSpace(email), expectedToken, newToken)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n == 0 {
		return domain.ErrVerificationNotFound()
	}
	return nil
}

// Delete is idempotent.
func (r *VerificationRepo) Delete(ctx context.Context, email string) error {
	const q = `DELETE FROM email_verification WHERE email = $1;`

	if _, err := r.db.ExecContext(ctx, q, strings.TrimSpace(email)); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
