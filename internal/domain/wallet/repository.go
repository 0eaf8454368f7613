package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines wallet data access.
type Repository interface {
	// GetByUserID returns the wallet with its most recent transactions, or nil when missing.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	// Create inserts a wallet seeded with balance and its initial credit.
	// It reports false when a wallet already existed; no transaction is written then.
	Create(ctx context.Context, userID uuid.UUID, balance int64, description string) (bool, error)
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the wallet ledger bound to a caller-owned transaction.
type Tx interface {
	// LockByUserID selects the wallet FOR UPDATE, or returns nil when missing.
	LockByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	Save(ctx context.Context, w *Wallet) error
	InsertTransaction(ctx context.Context, t *Transaction) error
}

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `
		SELECT id, user_id, coins, flash_coins, created_at, updated_at
		FROM wallets WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get wallet: %v", ErrInternal, err)
	}

	w.Transactions = []Transaction{}
	err = r.db.SelectContext(ctx, &w.Transactions, `
		SELECT id, wallet_id, description, amount, type, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, w.ID, RecentTransactionsLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ErrInternal, err)
	}

	return &w, nil
}

func (r *sqlRepository) Create(ctx context.Context, userID uuid.UUID, balance int64, description string) (bool, error) {
	created := false
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var walletID uuid.UUID
		err := tx.GetContext(ctx, &walletID, `
			INSERT INTO wallets (user_id, coins, flash_coins)
			VALUES ($1, $2, '[]'::jsonb)
			ON CONFLICT (user_id) DO NOTHING
			RETURNING id
		`, userID, balance)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: insert wallet: %v", ErrInternal, err)
		}
		created = true

		if balance == 0 {
			return nil
		}
		return insertTransaction(ctx, tx, &Transaction{
			WalletID:    walletID,
			Description: description,
			Amount:      balance,
			Type:        TransactionTypeCredit,
		})
	})
	return created, err
}

func (r *sqlRepository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(NewTx(tx))
	})
}

func (r *sqlRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", ErrInternal, err)
	}
	return nil
}

type sqlTx struct {
	tx *sqlx.Tx
}

// NewTx binds the wallet ledger to an existing transaction. The caller commits.
func NewTx(tx *sqlx.Tx) Tx {
	return &sqlTx{tx: tx}
}

func (t *sqlTx) LockByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := t.tx.GetContext(ctx, &w, `
		SELECT id, user_id, coins, flash_coins, created_at, updated_at
		FROM wallets WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock wallet: %v", ErrInternal, err)
	}
	return &w, nil
}

func (t *sqlTx) Save(ctx context.Context, w *Wallet) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE wallets SET coins = $2, flash_coins = $3, updated_at = NOW()
		WHERE id = $1
	`, w.ID, w.Coins, w.FlashCoins)
	if err != nil {
		return fmt.Errorf("%w: update wallet: %v", ErrInternal, err)
	}
	return nil
}

func (t *sqlTx) InsertTransaction(ctx context.Context, tr *Transaction) error {
	return insertTransaction(ctx, t.tx, tr)
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, tr *Transaction) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO wallet_transactions (wallet_id, description, amount, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, tr.WalletID, tr.Description, tr.Amount, tr.Type).Scan(&tr.ID, &tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert transaction: %v", ErrInternal, err)
	}
	return nil
}
