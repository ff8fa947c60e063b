// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/worksquare/internal/middleware"
)

// TokenIssuer はセッショントークン発行のインターフェース。
// token.Codecの部分集合として定義する。
type TokenIssuer interface {
	// Issue は指定メールアドレスを主体とする署名済みトークンを発行する。
	Issue(email string) (string, error)
}

// TokenMetrics はトークン発行イベントを記録するインターフェース。nil可。
type TokenMetrics interface {
	RecordTokenIssued()
}

// SessionHandlerConfig はセッションハンドラーの設定。
type SessionHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	TokenMaxAge  int // トークンCookieの有効期間（秒）
}

// SessionHandler はセッショントークンの発行・破棄を扱うHTTPハンドラー。
// トークンはステートレスで、サーバー側にセッションレコードは持たない。
type SessionHandler struct {
	issuer       TokenIssuer
	config       SessionHandlerConfig
	tokenMetrics TokenMetrics
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(issuer TokenIssuer, config SessionHandlerConfig, tokenMetrics TokenMetrics) *SessionHandler {
	return &SessionHandler{
		issuer:       issuer,
		config:       config,
		tokenMetrics: tokenMetrics,
	}
}

// issueTokenRequest はトークン発行リクエストのボディ。
// email以外のフィールドは無視する。
type issueTokenRequest struct {
	Email string `json:"email"`
}

// successResponse はセッション操作の成功レスポンス。
type successResponse struct {
	Success bool `json:"success"`
}

// IssueToken はトークンを発行しHTTP Only Cookieに設定する。
// POST /jwt
//
// ボディのemailを無検証で主体として採用する（身元確認は上流の
// 認証プロバイダで完了している前提の契約）。
func (h *SessionHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}
	if req.Email == "" {
		middleware.WriteMessage(w, http.StatusBadRequest, middleware.MessageBadRequest)
		return
	}

	tokenString, err := h.issuer.Issue(req.Email)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    tokenString,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.TokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.sameSite(),
	})

	if h.tokenMetrics != nil {
		h.tokenMetrics.RecordTokenIssued()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(successResponse{Success: true})
}

// Logout はトークンCookieをクリアする。
// POST /logout
//
// トークン自体の無効化は行わないため、Cookieの複製を保持していれば
// 有効期限までは引き続き使用できる。失効はTTL満了のみ。
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.sameSite(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(successResponse{Success: true})
}

// sameSite はCookieのSameSite属性を決定する。
// クロスサイトのフロントエンドと組む本番（Secure）ではNone、
// 同一サイトで完結する開発環境ではStrictを使用する。
func (h *SessionHandler) sameSite() http.SameSite {
	if h.config.CookieSecure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}
