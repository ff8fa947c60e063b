package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/worksquare/internal/middleware"
	"github.com/hitoshi/worksquare/internal/model"
)

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// ストア到達不能は503、存在しないレコードは404、所有権違反は403、
// それ以外は詳細をログのみに残して500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		middleware.WriteMessage(w, http.StatusNotFound, middleware.MessageNotFound)
	case errors.Is(err, model.ErrNotOwner):
		middleware.WriteForbidden(w)
	case errors.Is(err, model.ErrStoreUnavailable):
		slog.Error("document store unavailable", slog.String("error", err.Error()))
		middleware.WriteStoreUnavailable(w)
	default:
		slog.Error("unexpected service error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}
