// Package model はドメインモデルを定義する。
package model

import "errors"

var (
	// ErrTokenInvalid は署名が検証できないセッショントークンを示す。
	// 改ざんされたトークン、別の秘密鍵で署名されたトークンが該当する。
	ErrTokenInvalid = errors.New("token signature invalid")

	// ErrTokenExpired は有効期限を過ぎたセッショントークンを示す。
	// 署名自体が正しくても期限切れであれば検証は失敗する。
	ErrTokenExpired = errors.New("token expired")

	// ErrStoreUnavailable はドキュメントストア呼び出しの失敗またはタイムアウトを示す。
	// 呼び出し元は5xxとして返し、内部詳細は漏らさない。リトライはしない。
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrNotFound は対象レコードが存在しないことを示す。
	ErrNotFound = errors.New("record not found")

	// ErrNotOwner はリクエスト主体が対象レコードの所有者でないことを示す。
	// 呼び出し元は403として返す。
	ErrNotOwner = errors.New("requester is not the owner")
)
