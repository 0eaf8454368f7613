package promocode

import "errors"

var (
	ErrPromoCodeNotFound = errors.New("promo code not found")
	ErrCodeExists        = errors.New("promo code already exists")
	ErrForbiddenTenant   = errors.New("promo code belongs to another tenant")
	ErrInternal          = errors.New("internal error")

	// errCodeUnavailable aborts a redemption whose code changed after it was checked.
	errCodeUnavailable = errors.New("promo code no longer redeemable")
	// errWalletMissing aborts a coin reward for a user without a wallet.
	errWalletMissing = errors.New("wallet missing for coin reward")
)
