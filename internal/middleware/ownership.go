package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewOwnershipMiddleware はパスパラメータ{email}と認証済みメールアドレスを
// 照合するミドルウェアを返す。セッションミドルウェアの後に配置すること。
//
// 照合は大文字小文字を区別する完全一致。正規化は行わない（トークン発行時の
// 表記とパスの表記が一致しない場合は所有者本人でも403になる仕様）。
// 不一致の場合、対象データの存在有無にかかわらず403を返し、
// リソースの存在を漏らさない。
func NewOwnershipMiddleware(authMetrics AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := EmailFromContext(r.Context())
			if err != nil {
				// セッションミドルウェアを通過していない配線ミス
				WriteUnauthorized(w)
				return
			}

			pathEmail := chi.URLParam(r, "email")
			if pathEmail != email {
				if authMetrics != nil {
					authMetrics.RecordOwnershipDenied()
				}
				slog.Warn("ownership check failed",
					slog.String("path", r.URL.Path),
				)
				WriteForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
