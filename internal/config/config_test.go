package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WALLET_STARTING_BALANCE", "250")
	t.Setenv("FLASH_COIN_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	if cfg.WalletStartingBalance != 250 {
		t.Fatalf("expected starting balance 250, got %d", cfg.WalletStartingBalance)
	}
	if cfg.FlashCoinTTL != 30*24*time.Hour {
		t.Fatalf("expected default flash coin ttl, got %s", cfg.FlashCoinTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.UseS3() {
		t.Fatalf("expected local storage when S3_BUCKET is unset")
	}
}
