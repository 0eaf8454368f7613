package wallet

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// RecentTransactionsLimit caps the history returned with a wallet.
const RecentTransactionsLimit = 50

type Wallet struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	UserID       uuid.UUID     `db:"user_id" json:"user_id"`
	Coins        int64         `db:"coins" json:"coins"`
	FlashCoins   FlashCoins    `db:"flash_coins" json:"flash_coins"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
	Transactions []Transaction `db:"-" json:"transactions"`
}

// Transaction is an immutable ledger entry. Amount is signed: debits are negative.
type Transaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	WalletID    uuid.UUID       `db:"wallet_id" json:"wallet_id"`
	Description string          `db:"description" json:"description"`
	Amount      int64           `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// FlashCoin is a time-limited grant kept apart from the main balance.
type FlashCoin struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
}

// FlashCoins is stored as a JSONB array.
type FlashCoins []FlashCoin

func (f FlashCoins) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

func (f *FlashCoins) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = FlashCoins{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("flash_coins: unsupported source type")
	}
	return json.Unmarshal(data, f)
}

// Active returns the grants that have not expired at now.
func (f FlashCoins) Active(now time.Time) FlashCoins {
	out := FlashCoins{}
	for _, c := range f {
		if c.ExpiresAt.After(now) {
			out = append(out, c)
		}
	}
	return out
}

// Update is a partial wallet change; nil fields are left untouched.
type Update struct {
	Coins      *int64
	FlashCoins *FlashCoins
}
