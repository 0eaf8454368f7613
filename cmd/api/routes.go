package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/gamification"
	"github.com/brainqy/alumni-api/internal/domain/promocode"
	"github.com/brainqy/alumni-api/internal/domain/realtime"
	"github.com/brainqy/alumni-api/internal/domain/wallet"
	"github.com/brainqy/alumni-api/internal/middleware"
	"github.com/brainqy/alumni-api/internal/pkg/jwt"
	pkgresponse "github.com/brainqy/alumni-api/internal/pkg/response"
)

type handlers struct {
	wallet       *wallet.Handler
	promo        *promocode.Handler
	gamification *gamification.Handler
	activity     *activity.Handler
	realtime     *realtime.Handler
}

type routerConfig struct {
	AllowedOrigins []string
	// UploadsDir is served under /uploads when icons live on local disk.
	UploadsDir string
}

func newRouter(cfg routerConfig, jwtService *jwt.Service, h handlers) chi.Router {
	authMiddleware := middleware.Auth(jwtService)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket handshake authenticates with ?token= itself
	r.Get("/ws", h.realtime.ServeWS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Mount("/wallet", h.wallet.Routes())
			r.Mount("/promo-codes", h.promo.Routes())
			r.Mount("/activities", h.activity.Routes())
			r.Mount("/", h.gamification.Routes())

			r.Route("/admin", func(r chi.Router) {
				r.With(middleware.RequireStaff()).Mount("/promo-codes", h.promo.AdminRoutes())

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin())
					r.Mount("/wallets", h.wallet.AdminRoutes())
					r.Mount("/badges", h.gamification.AdminBadgeRoutes())
					r.Mount("/gamification-rules", h.gamification.AdminRuleRoutes())
				})
			})
		})
	})

	return r
}
