package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/worksquare/internal/model"
)

// mockVerifier はTokenVerifierのテスト用実装。
type mockVerifier struct {
	verifyFunc func(tokenString string) (string, error)
}

func (m *mockVerifier) Verify(tokenString string) (string, error) {
	return m.verifyFunc(tokenString)
}

// mockAuthMetrics はAuthMetricsのテスト用実装。
type mockAuthMetrics struct {
	rejections      []string
	ownershipDenied int
}

func (m *mockAuthMetrics) RecordAuthRejection(reason string) {
	m.rejections = append(m.rejections, reason)
}

func (m *mockAuthMetrics) RecordOwnershipDenied() {
	m.ownershipDenied++
}

// decodeMessage はレスポンスボディの {"message": ...} を取り出すヘルパー。
func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body.Message
}

// nextHandler はミドルウェア通過後のコンテキストを観測するハンドラーを返す。
func nextHandler(t *testing.T, called *bool, gotEmail *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if email, err := EmailFromContext(r.Context()); err == nil {
			*gotEmail = email
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Cookieが存在しない場合は401と定型メッセージを返すことを検証する。
func TestSessionMiddleware_MissingCookie_Returns401(t *testing.T) {
	verifier := &mockVerifier{verifyFunc: func(string) (string, error) {
		t.Fatal("Verify should not be called without a cookie")
		return "", nil
	}}
	authMetrics := &mockAuthMetrics{}

	called := false
	var gotEmail string
	mw := NewSessionMiddleware(verifier, authMetrics)
	handler := mw(nextHandler(t, &called, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/services/a@x.com", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if msg := decodeMessage(t, w); msg != "Unauthorized access" {
		t.Errorf("message = %q, want %q", msg, "Unauthorized access")
	}
	if called {
		t.Error("next handler should not be called")
	}
	if len(authMetrics.rejections) != 1 || authMetrics.rejections[0] != "missing" {
		t.Errorf("rejections = %v, want [missing]", authMetrics.rejections)
	}
}

// 空のCookie値も欠如として扱い401を返すことを検証する。
func TestSessionMiddleware_EmptyCookie_Returns401(t *testing.T) {
	verifier := &mockVerifier{verifyFunc: func(string) (string, error) {
		t.Fatal("Verify should not be called with an empty cookie")
		return "", nil
	}}

	called := false
	var gotEmail string
	mw := NewSessionMiddleware(verifier, nil)
	handler := mw(nextHandler(t, &called, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/bookings/a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: ""})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// 無効なトークンは403と定型メッセージを返すことを検証する。
func TestSessionMiddleware_InvalidToken_Returns403(t *testing.T) {
	verifier := &mockVerifier{verifyFunc: func(string) (string, error) {
		return "", model.ErrTokenInvalid
	}}
	authMetrics := &mockAuthMetrics{}

	called := false
	var gotEmail string
	mw := NewSessionMiddleware(verifier, authMetrics)
	handler := mw(nextHandler(t, &called, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/services/a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "tampered"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if msg := decodeMessage(t, w); msg != "Forbidden access" {
		t.Errorf("message = %q, want %q", msg, "Forbidden access")
	}
	if called {
		t.Error("next handler should not be called")
	}
	if len(authMetrics.rejections) != 1 || authMetrics.rejections[0] != "invalid" {
		t.Errorf("rejections = %v, want [invalid]", authMetrics.rejections)
	}
}

// 期限切れトークンは403を返し、理由がexpiredとして記録されることを検証する。
func TestSessionMiddleware_ExpiredToken_Returns403(t *testing.T) {
	verifier := &mockVerifier{verifyFunc: func(string) (string, error) {
		return "", model.ErrTokenExpired
	}}
	authMetrics := &mockAuthMetrics{}

	called := false
	var gotEmail string
	mw := NewSessionMiddleware(verifier, authMetrics)
	handler := mw(nextHandler(t, &called, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/services/a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "expired-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if len(authMetrics.rejections) != 1 || authMetrics.rejections[0] != "expired" {
		t.Errorf("rejections = %v, want [expired]", authMetrics.rejections)
	}
}

// 有効なトークンは通過し、メールアドレスがコンテキストに注入されることを検証する。
func TestSessionMiddleware_ValidToken_InjectsEmail(t *testing.T) {
	verifier := &mockVerifier{verifyFunc: func(tokenString string) (string, error) {
		if tokenString != "valid-token" {
			t.Errorf("Verify received %q, want %q", tokenString, "valid-token")
		}
		return "alice@example.com", nil
	}}

	called := false
	var gotEmail string
	mw := NewSessionMiddleware(verifier, nil)
	handler := mw(nextHandler(t, &called, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/services/alice@example.com", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "valid-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Fatal("next handler was not called")
	}
	if gotEmail != "alice@example.com" {
		t.Errorf("context email = %q, want %q", gotEmail, "alice@example.com")
	}
}

// EmailFromContextは未注入のコンテキストに対してエラーを返すことを検証する。
func TestEmailFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := EmailFromContext(req.Context()); err == nil {
		t.Error("expected error for context without email")
	}
}

// ContextWithEmailで注入した値がEmailFromContextで取得できることを検証する。
func TestContextWithEmail_RoundTrip(t *testing.T) {
	ctx := ContextWithEmail(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "bob@example.com")
	email, err := EmailFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email != "bob@example.com" {
		t.Errorf("email = %q, want %q", email, "bob@example.com")
	}
}
