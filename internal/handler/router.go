package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worksquare/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier           middleware.TokenVerifier
	AuthMetrics        middleware.AuthMetrics
	StatusMetrics      middleware.HTTPStatusRecorder
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger

	// セッション
	TokenIssuer   TokenIssuer
	TokenMetrics  TokenMetrics
	SessionConfig SessionHandlerConfig

	// ドメインサービス
	ListingService ListingServiceInterface
	BookingService BookingServiceInterface

	// ヘルスチェック用（nil可）
	DB *sql.DB
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// 所有者スコープのルートにはさらに Session → Ownership が、
// 削除ルートには Session のみが積まれる（所有者照合はレコード読込後にサービス層で行う）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusMetrics))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	sessionHandler := NewSessionHandler(deps.TokenIssuer, deps.SessionConfig, deps.TokenMetrics)
	serviceHandler := NewServiceHandler(deps.ListingService)
	bookingHandler := NewBookingHandler(deps.BookingService)

	// --- 認証不要のルート ---

	// セッションライフサイクル
	r.Post("/jwt", sessionHandler.IssueToken)
	r.Post("/logout", sessionHandler.Logout)

	// 公開ブラウズと開放エンドポイント
	r.Get("/services", serviceHandler.ListServices)
	r.Post("/services", serviceHandler.CreateService)
	r.Get("/service/{id}", serviceHandler.GetService)
	r.Patch("/service/{id}", serviceHandler.UpdateStatus)

	// 予約作成は専用レート制限を追加
	r.With(deps.RateLimiter.BookingMiddleware()).Post("/bookings", bookingHandler.CreateBooking)
	r.Patch("/booking/{id}", bookingHandler.UpdateStatus)

	// ヘルスチェック
	r.Get("/health", healthHandler(deps.DB))

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Verifier, deps.AuthMetrics))

		// 削除はレコードの所有者フィールドとの照合で認可（パスに所有者は現れない）
		r.Delete("/service/{id}", serviceHandler.DeleteService)
		r.Delete("/booking/{id}", bookingHandler.DeleteBooking)

		// 所有者スコープの一覧はパスの{email}との照合で認可
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewOwnershipMiddleware(deps.AuthMetrics))

			r.Get("/services/{email}", serviceHandler.ListOwnedServices)
			r.Get("/bookings/{email}", bookingHandler.ListClientBookings)
			r.Get("/bookings-request/{email}", bookingHandler.ListHostBookings)
		})
	})

	return r
}

// healthHandler はプロセスとデータベース接続の状態を返すハンドラーを生成する。
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
