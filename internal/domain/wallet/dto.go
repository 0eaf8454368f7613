package wallet

import (
	"time"

	"github.com/google/uuid"
)

// AdjustRequest is an administrative wallet change.
type AdjustRequest struct {
	Coins       *int64              `json:"coins" validate:"omitempty,gte=0"`
	FlashCoins  *[]FlashCoinRequest `json:"flash_coins" validate:"omitempty,dive"`
	Description string              `json:"description" validate:"required,max=255"`
}

type FlashCoinRequest struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount" validate:"gt=0"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
	Source    string    `json:"source" validate:"max=100"`
}

// ToUpdate converts the request, assigning ids to new flash-coin grants.
func (r AdjustRequest) ToUpdate() Update {
	upd := Update{Coins: r.Coins}
	if r.FlashCoins != nil {
		coins := make(FlashCoins, 0, len(*r.FlashCoins))
		for _, fc := range *r.FlashCoins {
			id := fc.ID
			if id == "" {
				id = uuid.NewString()
			}
			coins = append(coins, FlashCoin{ID: id, Amount: fc.Amount, ExpiresAt: fc.ExpiresAt.UTC(), Source: fc.Source})
		}
		upd.FlashCoins = &coins
	}
	return upd
}

// WalletResponse hides expired flash coins from the client. Its FlashCoins field
// shadows the embedded wallet's.
type WalletResponse struct {
	*Wallet
	FlashCoins FlashCoins `json:"flash_coins"`
}

func NewWalletResponse(w *Wallet, now time.Time) WalletResponse {
	return WalletResponse{Wallet: w, FlashCoins: w.FlashCoins.Active(now)}
}
