package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password_hash, phone, dob, address, created_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.FirstName,
		&ur.LastName,
		&ur.Email,
		&ur.PasswordHash,
		&ur.Phone,
		&ur.DOB,
		&ur.Address,
		&ur.CreatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	return domain.User{
		ID:           ur.ID,
		FirstName:    ur.FirstName,
		LastName:     ur.LastName,
		Email:        ur.Email,
		PasswordHash: ur.PasswordHash,
		Phone:        ur.Phone,
		DOB:          ur.DOB,
		Address:      ur.Address,
		CreatedAt:    ur.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg string) (domain.User, error) {
	ur, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// ---------- auth.UserRepo ----------

// GetByEmail matches the email exactly; addresses are case-sensitive.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("Email is required", "email")
	}

	const q = `SELECT ` + userColumns + `
FROM users
WHERE email = $1
LIMIT 1;`
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("User id is required", "id")
	}

	const q = `SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1;`
	return r.getOne(ctx, q, id)
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("User id is required", "id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("Email is required", "email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("Password hash is required", "password_hash")
	}

	const q = `
INSERT INTO users (id, first_name, last_name, email, password_hash, phone, dob, address)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + userColumns + `;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Phone, u.DOB, u.Address,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrUserAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// UpdateProfile writes the mutable profile columns only; email and
// password_hash are never touched here.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("User id is required", "id")
	}

	const q = `
UPDATE users
SET first_name = $2, last_name = $3, phone = $4, dob = $5, address = $6
WHERE id = $1
RETURNING ` + userColumns + `;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q,
		id, p.FirstName, p.LastName, p.Phone, p.DOB, p.Address,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// Ping is used by the readiness probe.
func (r *UserRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
