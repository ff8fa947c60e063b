// Package token は署名付きセッショントークンの発行と検証を提供する。
//
// トークンはHS256で署名されたJWTであり、サブジェクト（メールアドレス）と
// 発行時刻・有効期限のみを運ぶ。サーバー側にセッション状態は持たない。
// 署名秘密鍵はプロセス全体の設定として起動時に1回注入され、
// ローテーションすると発行済みトークンは全て無効になる。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/worksquare/internal/model"
)

// DefaultTTL はセッショントークンのデフォルト有効期間。
const DefaultTTL = time.Hour

// CodecConfig はCodecの設定。
type CodecConfig struct {
	// Secret はHMAC署名の秘密鍵。必須。
	Secret string
	// TTL はトークンの有効期間。ゼロ値の場合はDefaultTTLを使用する。
	TTL time.Duration
	// Now は現在時刻の取得関数。nilの場合はtime.Nowを使用する。
	// テストで固定クロックを注入するための口。
	Now func() time.Time
}

// Codec はセッショントークンの発行・検証を行う。
// 発行・検証ともに入力と秘密鍵とクロックのみに依存し、副作用を持たない。
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec はCodecを生成する。
func NewCodec(cfg CodecConfig) *Codec {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		now:    now,
	}
}

// Issue は指定アイデンティティを埋め込んだ署名付きトークンを発行する。
// 有効期限は発行時刻からTTL後に固定される。
func (c *Codec) Issue(email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、埋め込まれたアイデンティティを返す。
// 署名が一致しない場合はmodel.ErrTokenInvalid、
// 有効期限切れの場合はmodel.ErrTokenExpiredを返す。
// 署名比較はHMACの定数時間比較で行われ、タイミング攻撃に耐性を持つ。
func (c *Codec) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.ErrTokenExpired
		}
		return "", model.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", model.ErrTokenInvalid
	}

	return claims.Subject, nil
}
