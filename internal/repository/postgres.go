package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repricelab/ebay-connect/internal/domain"
	"github.com/repricelab/ebay-connect/internal/domain/ebay"
)

// Compile-time interface assertions.
var (
	_ UserRepository    = (*PostgresUserRepo)(nil)
	_ AccountRepository = (*PostgresAccountRepo)(nil)
)

// PostgresUserRepo implements UserRepository.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserSQL = `SELECT id, email, password_hash, stripe_customer_id, subscription_status, preferred_language, created_at, updated_at
FROM users`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE email = $1`, email)
	return scanUser(row)
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE id = $1`, userID)
	return scanUser(row)
}

const insertUserSQL = `INSERT INTO users (id, email, password_hash, stripe_customer_id, subscription_status, preferred_language)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, email, password_hash, stripe_customer_id, subscription_status, preferred_language, created_at, updated_at`

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.StripeCustomerID,
		user.SubscriptionStatus,
		user.PreferredLanguage,
	)
	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.StripeCustomerID,
		&u.SubscriptionStatus,
		&u.PreferredLanguage,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// PostgresAccountRepo implements AccountRepository. Mutating statements set
// updated_at explicitly instead of relying on database triggers.
type PostgresAccountRepo struct {
	db *pgxpool.Pool
}

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: pool}
}

const accountColumns = `id, user_id, ebay_user_id, access_token, refresh_token, token_expiry, app_id, cert_id, dev_id, is_active, created_at, updated_at`

const insertAccountSQL = `INSERT INTO ebay_accounts (id, user_id, ebay_user_id, access_token, refresh_token, token_expiry, app_id, cert_id, dev_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + accountColumns

func (r *PostgresAccountRepo) Create(ctx context.Context, account ebay.Account) (ebay.Account, error) {
	row := r.db.QueryRow(ctx, insertAccountSQL,
		account.ID,
		account.UserID,
		account.EbayUserID,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiry,
		account.Credentials.AppID,
		account.Credentials.CertID,
		account.Credentials.DevID,
		account.IsActive,
	)
	created, err := scanAccount(row)
	if err != nil {
		return ebay.Account{}, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (r *PostgresAccountRepo) GetByID(ctx context.Context, accountID int64) (ebay.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM ebay_accounts WHERE id = $1`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ebay.Account{}, ebay.ErrAccountNotFound
		}
		return ebay.Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountRepo) ListActiveByUser(ctx context.Context, userID int64) ([]ebay.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM ebay_accounts WHERE user_id = $1 AND is_active ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ebay.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *PostgresAccountRepo) SetActive(ctx context.Context, accountID int64, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE ebay_accounts SET is_active = $2, updated_at = now() WHERE id = $1`,
		accountID, active,
	)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ebay.ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepo) UpdateTokens(ctx context.Context, accountID int64, accessToken, refreshToken string, expiry time.Time) error {
	// COALESCE keeps the stored refresh token when the exchange did not
	// return a new one. Both tokens land in one statement so a reader never
	// sees a half-applied pair.
	tag, err := r.db.Exec(ctx,
		`UPDATE ebay_accounts
SET access_token = $2,
    refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
    token_expiry = $4,
    updated_at = now()
WHERE id = $1`,
		accountID, accessToken, refreshToken, expiry,
	)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ebay.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (ebay.Account, error) {
	var a ebay.Account
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.EbayUserID,
		&a.AccessToken,
		&a.RefreshToken,
		&a.TokenExpiry,
		&a.Credentials.AppID,
		&a.Credentials.CertID,
		&a.Credentials.DevID,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return ebay.Account{}, err
	}
	return a, nil
}
