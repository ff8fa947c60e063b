// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/worksquare/internal/model"
)

// TokenCookieName はセッショントークンを格納するCookie名。
const TokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// emailContextKey はリクエストコンテキストに認証済みメールアドレスを格納するためのキー。
var emailContextKey = contextKey("email")

// TokenVerifier はトークン検証に必要なインターフェース。
// token.Codecの部分集合として定義する。
type TokenVerifier interface {
	// Verify はトークン文字列を検証し、主体のメールアドレスを返す。
	Verify(tokenString string) (string, error)
}

// AuthMetrics は認証・認可の拒否イベントを記録するインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。nil可。
type AuthMetrics interface {
	RecordAuthRejection(reason string)
	RecordOwnershipDenied()
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 署名と有効期限を検証するミドルウェアを返す。
// 認証済みメールアドレスをリクエストコンテキストに注入する。
//
// Cookieが存在しない場合は401、トークンが無効または期限切れの場合は403を返す。
// 401と403の区別はクライアント側の挙動（ログイン誘導 vs 強制ログアウト）に
// 使用されるため崩さないこと。
func NewSessionMiddleware(verifier TokenVerifier, authMetrics AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得。欠如は401。
			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				recordRejection(authMetrics, "missing")
				WriteUnauthorized(w)
				return
			}

			// 2. トークンの署名と有効期限を検証。失敗は403。
			email, err := verifier.Verify(cookie.Value)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, model.ErrTokenExpired) {
					reason = "expired"
				}
				recordRejection(authMetrics, reason)
				slog.Warn("token verification failed",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
				)
				WriteForbidden(w)
				return
			}

			// 3. 認証済みメールアドレスをコンテキストに注入
			ctx := context.WithValue(r.Context(), emailContextKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func recordRejection(authMetrics AuthMetrics, reason string) {
	if authMetrics != nil {
		authMetrics.RecordAuthRejection(reason)
	}
}

// EmailFromContext はリクエストコンテキストから認証済みメールアドレスを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func EmailFromContext(ctx context.Context) (string, error) {
	email, ok := ctx.Value(emailContextKey).(string)
	if !ok || email == "" {
		return "", fmt.Errorf("email not found in context")
	}
	return email, nil
}

// ContextWithEmail はコンテキストにメールアドレスを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey, email)
}
