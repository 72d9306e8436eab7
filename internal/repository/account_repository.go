package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/bloomworks/florapost/internal/models"
)

type AccountRepository interface {
	Upsert(ctx context.Context, account *models.PlatformAccount) (int64, error)
	GetByPlatform(ctx context.Context, platform models.Platform) (*models.PlatformAccount, error)
	List(ctx context.Context) ([]*models.PlatformAccount, error)
	ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.PlatformAccount, error)
	SetToken(ctx context.Context, platform models.Platform, account *models.PlatformAccount) error
	Remove(ctx context.Context, platform models.Platform) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Upsert stores the connected account for a platform. One account per
// platform, so reconnecting replaces the stored tokens.
func (r *accountRepository) Upsert(ctx context.Context, account *models.PlatformAccount) (int64, error) {
	query := `
		INSERT INTO platform_accounts (
			platform,
			account_id,
			account_name,
			access_token,
			refresh_token,
			token_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (platform) DO UPDATE
		SET account_id = EXCLUDED.account_id,
			account_name = EXCLUDED.account_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		account.Platform,
		account.AccountID,
		account.AccountName,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiresAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *accountRepository) GetByPlatform(ctx context.Context, platform models.Platform) (*models.PlatformAccount, error) {
	query := `
		SELECT id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, created_at, updated_at
		FROM platform_accounts
		WHERE platform = $1
	`
	row := r.db.QueryRowContext(ctx, query, platform)

	var account models.PlatformAccount
	err := row.Scan(&account.ID, &account.Platform, &account.AccountID, &account.AccountName,
		&account.AccessToken, &account.RefreshToken, &account.TokenExpiresAt,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.PlatformAccount, error) {
	query := `
		SELECT id, platform, account_id, account_name, token_expires_at, created_at, updated_at
		FROM platform_accounts
		ORDER BY platform
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.PlatformAccount
	for rows.Next() {
		var account models.PlatformAccount
		err := rows.Scan(&account.ID, &account.Platform, &account.AccountID, &account.AccountName,
			&account.TokenExpiresAt, &account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *accountRepository) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.PlatformAccount, error) {
	query := `
		SELECT platform, access_token, refresh_token, token_expires_at
		FROM platform_accounts
		WHERE (token_expires_at BETWEEN $1 AND $2)
		OR (token_expires_at < $1)
	`
	rows, err := r.db.QueryContext(ctx, query, initialTime, finalTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.PlatformAccount
	for rows.Next() {
		var account models.PlatformAccount
		err := rows.Scan(&account.Platform, &account.AccessToken, &account.RefreshToken, &account.TokenExpiresAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *accountRepository) SetToken(ctx context.Context, platform models.Platform, account *models.PlatformAccount) error {
	query := `
		UPDATE platform_accounts
		SET access_token = COALESCE(NULLIF($2, ''), access_token),
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = COALESCE($4, token_expires_at),
			updated_at = CURRENT_TIMESTAMP
		WHERE platform = $1
	`
	result, err := r.db.ExecContext(ctx, query, platform, account.AccessToken, account.RefreshToken, account.TokenExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return models.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) Remove(ctx context.Context, platform models.Platform) error {
	query := `DELETE FROM platform_accounts WHERE platform = $1`
	_, err := r.db.ExecContext(ctx, query, platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
