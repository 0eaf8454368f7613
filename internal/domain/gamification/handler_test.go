package gamification

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brainqy/alumni-api/internal/middleware"
	"github.com/brainqy/alumni-api/internal/pkg/imaging"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestRouter(repo *memoryRepository, store *memoryStorage) chi.Router {
	h := NewHandler(NewService(repo, nil, nil, store, imaging.NewIconProcessor(32)))
	r := chi.NewRouter()
	r.Mount("/", h.Routes())
	r.Mount("/admin/badges", h.AdminBadgeRoutes())
	r.Mount("/admin/gamification-rules", h.AdminRuleRoutes())
	return r
}

func TestGamificationEndpoints(t *testing.T) {
	repo := newMemoryRepository()
	repo.addBadge("Consistent Learner", "daily_streak_3", 50, 1)
	u := repo.addUser("brainqy", 5)
	r := newTestRouter(repo, &memoryStorage{objects: map[string][]byte{}})

	t.Run("check awards badges for caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/gamification/check", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), u.ID, "brainqy", middleware.RoleUser))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var data struct {
			NewBadges []Badge `json:"new_badges"`
		}
		decodeData(t, w, &data)
		if w.Code != http.StatusOK || len(data.NewBadges) != 1 {
			t.Fatalf("expected one new badge, got %d %+v", w.Code, data)
		}
	})

	t.Run("second check is empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/gamification/check", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), u.ID, "brainqy", middleware.RoleUser))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var data struct {
			NewBadges []Badge `json:"new_badges"`
		}
		decodeData(t, w, &data)
		if data.NewBadges == nil || len(data.NewBadges) != 0 {
			t.Fatalf("expected empty list, got %+v", data.NewBadges)
		}
	})

	t.Run("create badge rejects bad condition", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]interface{}{"name": "Broken", "trigger_condition": "streak"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/badges", bytes.NewReader(payload)))

		body := decodeBody(t, w)
		if w.Code != http.StatusUnprocessableEntity || body.Error.Details["trigger_condition"] == "" {
			t.Fatalf("expected validation error, got %d %+v", w.Code, body)
		}
	})

	t.Run("duplicate rule conflicts", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]interface{}{"action_id": "resume_scan", "xp_points": 10})
		for i, want := range []int{http.StatusCreated, http.StatusConflict} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/gamification-rules", bytes.NewReader(payload)))
			if w.Code != want {
				t.Fatalf("attempt %d: expected %d, got %d", i, want, w.Code)
			}
		}
	})

	t.Run("delete missing rule", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/gamification-rules/unknown", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid badge id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/badges/not-a-uuid", nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestUploadIconEndpoint(t *testing.T) {
	repo := newMemoryRepository()
	b := repo.addBadge("Resume Pro", "resume_scans_5", 100, 0)
	store := &memoryStorage{objects: map[string][]byte{}}
	r := newTestRouter(repo, store)

	var img bytes.Buffer
	png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 10, 10)))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "icon.png")
	part.Write(img.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/badges/"+b.ID.String()+"/icon", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var updated Badge
	decodeData(t, w, &updated)
	if w.Code != http.StatusOK || updated.Icon == "" {
		t.Fatalf("expected icon url, got %d %+v", w.Code, updated)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected stored icon, got %d objects", len(store.objects))
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var body apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	body := decodeBody(t, w)
	if err := json.Unmarshal(body.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, w.Body.String())
	}
}
