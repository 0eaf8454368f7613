package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const welcomeBonusDescription = "Welcome bonus"

type Service struct {
	repo            Repository
	startingBalance int64
}

func NewService(repo Repository, startingBalance int64) *Service {
	return &Service{repo: repo, startingBalance: startingBalance}
}

// GetWallet returns the user's wallet, creating it with the starting balance on first access.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.unavailable(err, userID, "get wallet")
	}
	if w != nil {
		return capHistory(w), nil
	}

	created, err := s.repo.Create(ctx, userID, s.startingBalance, welcomeBonusDescription)
	if err != nil {
		return nil, s.unavailable(err, userID, "create wallet")
	}
	if created {
		log.Info().Str("user_id", userID.String()).Int64("coins", s.startingBalance).Msg("wallet created")
	}

	w, err = s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.unavailable(err, userID, "reload wallet")
	}
	if w == nil {
		return nil, s.unavailable(ErrWalletNotFound, userID, "reload wallet")
	}
	return capHistory(w), nil
}

// UpdateWallet applies upd atomically. A user without a wallet gets a fresh one instead.
func (s *Service) UpdateWallet(ctx context.Context, userID uuid.UUID, upd Update, description string) (*Wallet, error) {
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		_, err := ApplyUpdate(ctx, tx, userID, upd, description)
		return err
	})
	switch {
	case errors.Is(err, ErrWalletNotFound):
		return s.GetWallet(ctx, userID)
	case errors.Is(err, ErrInvalidAmount):
		return nil, err
	case err != nil:
		return nil, s.unavailable(err, userID, "update wallet")
	}

	w, err := s.repo.GetByUserID(ctx, userID)
	if err != nil || w == nil {
		return nil, s.unavailable(err, userID, "reload wallet")
	}
	return capHistory(w), nil
}

// capHistory trims a newest-first history to RecentTransactionsLimit entries.
func capHistory(w *Wallet) *Wallet {
	if len(w.Transactions) > RecentTransactionsLimit {
		w.Transactions = w.Transactions[:RecentTransactionsLimit]
	}
	return w
}

// ApplyUpdate locks the user's wallet inside tx and applies upd to it.
func ApplyUpdate(ctx context.Context, tx Tx, userID uuid.UUID, upd Update, description string) (*Wallet, error) {
	w, err := tx.LockByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	if err := ApplyToLocked(ctx, tx, w, upd, description); err != nil {
		return nil, err
	}
	return w, nil
}

// ApplyToLocked writes upd to a wallet already locked in tx. Every non-zero change of
// the coin balance is recorded as one credit or debit; flash-coin changes are not.
func ApplyToLocked(ctx context.Context, tx Tx, w *Wallet, upd Update, description string) error {
	var delta int64
	if upd.Coins != nil {
		if *upd.Coins < 0 {
			return ErrInvalidAmount
		}
		delta = *upd.Coins - w.Coins
		w.Coins = *upd.Coins
	}
	if upd.FlashCoins != nil {
		w.FlashCoins = *upd.FlashCoins
	}

	if err := tx.Save(ctx, w); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}

	txType := TransactionTypeCredit
	if delta < 0 {
		txType = TransactionTypeDebit
	}
	return tx.InsertTransaction(ctx, &Transaction{
		WalletID:    w.ID,
		Description: description,
		Amount:      delta,
		Type:        txType,
	})
}

func (s *Service) unavailable(err error, userID uuid.UUID, op string) error {
	log.Error().Err(err).Str("user_id", userID.String()).Str("op", op).Msg("wallet operation failed")
	return ErrWalletUnavailable
}
