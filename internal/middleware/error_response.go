package middleware

import (
	"encoding/json"
	"net/http"
)

// API全体で使用する定型エラーメッセージ。
// クライアント側はこの文字列に依存しているため変更しないこと。
const (
	MessageUnauthorized     = "Unauthorized access"
	MessageForbidden        = "Forbidden access"
	MessageNotFound         = "Not found"
	MessageStoreUnavailable = "Service temporarily unavailable"
	MessageInternalError    = "Internal server error"
	MessageBadRequest       = "Bad request"
)

// messageBody はAPIエラーレスポンスの統一フォーマット。
// ボディは単一のmessageフィールドのみを持つ。
type messageBody struct {
	Message string `json:"message"`
}

// WriteMessage は統一フォーマット {"message": ...} でレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(messageBody{Message: message})
}

// WriteUnauthorized は401 Unauthorizedの統一レスポンスを書き込む。
// 認証情報が提示されていない場合に使用する。
func WriteUnauthorized(w http.ResponseWriter) {
	WriteMessage(w, http.StatusUnauthorized, MessageUnauthorized)
}

// WriteForbidden は403 Forbiddenの統一レスポンスを書き込む。
// 認証情報が無効・期限切れ、または所有権チェックに失敗した場合に使用する。
func WriteForbidden(w http.ResponseWriter) {
	WriteMessage(w, http.StatusForbidden, MessageForbidden)
}

// WriteStoreUnavailable は503 Service Unavailableの統一レスポンスを書き込む。
// ドキュメントストアに到達できない場合に使用する。
func WriteStoreUnavailable(w http.ResponseWriter) {
	WriteMessage(w, http.StatusServiceUnavailable, MessageStoreUnavailable)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteMessage(w, http.StatusInternalServerError, MessageInternalError)
}
