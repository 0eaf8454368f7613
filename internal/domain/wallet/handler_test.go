package wallet

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brainqy/alumni-api/internal/middleware"
)

type walletAPIResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Coins        int64         `json:"coins"`
		Transactions []Transaction `json:"transactions"`
	} `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func TestWalletEndpoints(t *testing.T) {
	repo := newMemoryRepository()
	h := NewHandler(NewService(repo, 100))
	userID := uuid.New()

	r := chi.NewRouter()
	r.Mount("/wallet", h.Routes())
	r.Mount("/admin/wallets", h.AdminRoutes())

	t.Run("GET creates wallet", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), userID, "brainqy", middleware.RoleUser))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		body := decodeWallet(t, w)
		if w.Code != http.StatusOK || body.Data.Coins != 100 {
			t.Fatalf("expected 200 with 100 coins, got %d %+v", w.Code, body)
		}
	})

	t.Run("PATCH adjusts balance", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]interface{}{"coins": 130, "description": "Event prize"})
		req := httptest.NewRequest(http.MethodPatch, "/admin/wallets/"+userID.String(), bytes.NewReader(payload))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		body := decodeWallet(t, w)
		if w.Code != http.StatusOK || body.Data.Coins != 130 || len(body.Data.Transactions) != 2 {
			t.Fatalf("unexpected response %d %+v", w.Code, body)
		}
	})

	t.Run("PATCH without description fails validation", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]interface{}{"coins": 10})
		req := httptest.NewRequest(http.MethodPatch, "/admin/wallets/"+userID.String(), bytes.NewReader(payload))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		body := decodeWallet(t, w)
		if w.Code != http.StatusUnprocessableEntity || body.Error == nil || body.Error.Details["description"] == "" {
			t.Fatalf("expected validation error on description, got %d %+v", w.Code, body)
		}
	})

	t.Run("GET without identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallet", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestWalletResponseOmitsExpiredFlashCoins(t *testing.T) {
	repo := newMemoryRepository()
	userID := uuid.New()
	now := time.Now()
	repo.wallets[userID] = &Wallet{
		ID:     uuid.New(),
		UserID: userID,
		Coins:  10,
		FlashCoins: FlashCoins{
			{ID: "expired-grant", Amount: 5, ExpiresAt: now.Add(-time.Hour), Source: "SPRING"},
			{ID: "live-grant", Amount: 7, ExpiresAt: now.Add(time.Hour), Source: "SUMMER"},
		},
	}

	r := chi.NewRouter()
	r.Mount("/wallet", NewHandler(NewService(repo, 100)).Routes())

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), userID, "brainqy", middleware.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "expired-grant") {
		t.Fatalf("expired grant leaked into response: %s", w.Body.String())
	}

	var body struct {
		Data struct {
			FlashCoins []FlashCoin `json:"flash_coins"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data.FlashCoins) != 1 || body.Data.FlashCoins[0].ID != "live-grant" {
		t.Fatalf("expected only the live grant, got %+v", body.Data.FlashCoins)
	}
}

func decodeWallet(t *testing.T, w *httptest.ResponseRecorder) walletAPIResponse {
	t.Helper()
	var body walletAPIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}
