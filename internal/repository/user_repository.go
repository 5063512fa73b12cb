package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/apihub-auth/internal/domain"
)

const userColumns = `
        id, username, email, password_hash, role, status, login_type, avatar_url,
        email_verified, refresh_token, forgot_password_token, forgot_password_expiry,
        email_verification_token, email_verification_expiry, created_at, updated_at`

// UserRepository defines persistence access for credentials. Password hashes
// are written only by Create, UpdatePassword, and RedeemPasswordReset; every
// other mutation leaves the secret column untouched.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	UpdateRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error

	SetPasswordResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	RedeemPasswordReset(ctx context.Context, tokenHash, newPasswordHash string) (*domain.User, error)
	SetEmailVerificationToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	RedeemEmailVerification(ctx context.Context, tokenHash string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, role, status, login_type, avatar_url, email_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.LoginType,
		user.AvatarURL,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE ` + column + `=$1`
	return scanUser(r.pool.QueryRow(ctx, query, value))
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	const query = `UPDATE users SET refresh_token=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, token, id)
}

func (r *userRepository) ClearRefreshToken(ctx context.Context, id string) error {
	const query = `UPDATE users SET refresh_token=NULL, updated_at=NOW() WHERE id=$1`
	return r.exec(ctx, query, id)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, passwordHash, id)
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	const query = `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, role, id)
}

func (r *userRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	const query = `UPDATE users SET status=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, status, id)
}

func (r *userRepository) SetPasswordResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error {
	const query = `
        UPDATE users SET forgot_password_token=$1, forgot_password_expiry=$2, updated_at=NOW()
        WHERE id=$3`
	return r.exec(ctx, query, tokenHash, expiry, id)
}

// RedeemPasswordReset swaps the password and clears the reset pair in a
// single statement, so a token can never authorize two resets.
func (r *userRepository) RedeemPasswordReset(ctx context.Context, tokenHash, newPasswordHash string) (*domain.User, error) {
	query := `
        UPDATE users SET password_hash=$2,
            forgot_password_token=NULL, forgot_password_expiry=NULL, updated_at=NOW()
        WHERE forgot_password_token=$1 AND forgot_password_expiry > NOW()
        RETURNING` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, tokenHash, newPasswordHash))
}

func (r *userRepository) SetEmailVerificationToken(ctx context.Context, id, tokenHash string, expiry time.Time) error {
	const query = `
        UPDATE users SET email_verification_token=$1, email_verification_expiry=$2, updated_at=NOW()
        WHERE id=$3`
	return r.exec(ctx, query, tokenHash, expiry, id)
}

// RedeemEmailVerification marks the email verified and clears the pair
// atomically, mirroring RedeemPasswordReset.
func (r *userRepository) RedeemEmailVerification(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `
        UPDATE users SET email_verified=TRUE,
            email_verification_token=NULL, email_verification_expiry=NULL, updated_at=NOW()
        WHERE email_verification_token=$1 AND email_verification_expiry > NOW()
        RETURNING` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, tokenHash))
}

func (r *userRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user               domain.User
		refreshToken       *string
		forgotToken        *string
		emailToken         *string
		forgotExpiry       *time.Time
		verificationExpiry *time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.LoginType,
		&user.AvatarURL,
		&user.EmailVerified,
		&refreshToken,
		&forgotToken,
		&forgotExpiry,
		&emailToken,
		&verificationExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if refreshToken != nil {
		user.RefreshToken = *refreshToken
	}
	if forgotToken != nil {
		user.ForgotPasswordToken = *forgotToken
	}
	if emailToken != nil {
		user.EmailVerificationToken = *emailToken
	}
	user.ForgotPasswordExpiry = forgotExpiry
	user.EmailVerificationExpiry = verificationExpiry
	return &user, nil
}

// IsUniqueViolation detects a PostgreSQL unique constraint violation, used to
// map duplicate email/username inserts to a conflict.
func IsUniqueViolation(err error) bool {
	type pgError interface{ SQLState() string }
	var pgErr pgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
