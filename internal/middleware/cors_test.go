package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCORSTestHandler(origins []string) http.Handler {
	mw := NewCORSMiddleware(origins)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// 許可リストに含まれるオリジンにはCORSヘッダーがエコーバックされることを検証する。
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := newCORSTestHandler([]string{"http://localhost:5173", "http://localhost:5174"})

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	req.Header.Set("Origin", "http://localhost:5174")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5174" {
		t.Errorf("Allow-Origin = %q, want %q", got, "http://localhost:5174")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

// 許可リスト外のオリジンにはCORSヘッダーを付与しないことを検証する。
func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := newCORSTestHandler([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
}

// OPTIONSプリフライトには204で応答し、後続ハンドラーを呼ばないことを検証する。
func TestCORSMiddleware_PreflightReturns204(t *testing.T) {
	called := false
	mw := NewCORSMiddleware([]string{"http://localhost:5173"})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/jwt", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if called {
		t.Error("next handler should not be called for preflight")
	}
}
