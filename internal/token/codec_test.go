package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/worksquare/internal/model"
)

// 固定クロックのCodecを生成するテストヘルパー。
func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	return NewCodec(CodecConfig{
		Secret: "test-secret",
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	})
}

func TestCodec_IssueAndVerify_RoundTrip(t *testing.T) {
	c := newTestCodec(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	email, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email != "a@x.com" {
		t.Errorf("email = %q, want %q", email, "a@x.com")
	}
}

// A向けに発行したトークンがBとして認証されないことを検証。
func TestCodec_NoIdentitySubstitution(t *testing.T) {
	c := newTestCodec(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	tokA, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	email, err := c.Verify(tokA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email == "b@x.com" {
		t.Error("token for a@x.com must never authenticate as b@x.com")
	}
	if email != "a@x.com" {
		t.Errorf("email = %q, want %q", email, "a@x.com")
	}
}

func TestCodec_Issue_EmptyEmail_ReturnsError(t *testing.T) {
	c := newTestCodec(t, time.Now())

	if _, err := c.Issue(""); err == nil {
		t.Error("expected error for empty email")
	}
}

// 署名が正しくても期限を過ぎたトークンはErrTokenExpiredになることを検証。
func TestCodec_Verify_Expired_ReturnsErrTokenExpired(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestCodec(t, issuedAt)

	tok, err := issuer.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 発行から1時間1秒後に検証する
	verifier := newTestCodec(t, issuedAt.Add(time.Hour+time.Second))

	_, err = verifier.Verify(tok)
	if !errors.Is(err, model.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

// 期限ちょうど1時間以内であれば有効であることを検証。
func TestCodec_Verify_WithinTTL_Succeeds(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestCodec(t, issuedAt)

	tok, err := issuer.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verifier := newTestCodec(t, issuedAt.Add(59*time.Minute))
	if _, err := verifier.Verify(tok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// 署名部分を1バイトでも改ざんしたトークンはErrTokenInvalidになることを検証。
func TestCodec_Verify_TamperedSignature_ReturnsErrTokenInvalid(t *testing.T) {
	c := newTestCodec(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// JWTの署名セグメント（最終セグメント）の先頭1文字を差し替える
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format: %q", tok)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = c.Verify(tampered)
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

// 別の秘密鍵で署名されたトークンはErrTokenInvalidになることを検証。
func TestCodec_Verify_WrongSecret_ReturnsErrTokenInvalid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	other := NewCodec(CodecConfig{
		Secret: "other-secret",
		Now:    func() time.Time { return now },
	})

	tok, err := other.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := newTestCodec(t, now)
	_, err = c.Verify(tok)
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestCodec_Verify_Garbage_ReturnsErrTokenInvalid(t *testing.T) {
	c := newTestCodec(t, time.Now())

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := c.Verify(tok); !errors.Is(err, model.ErrTokenInvalid) {
			t.Errorf("Verify(%q) err = %v, want ErrTokenInvalid", tok, err)
		}
	}
}

// 同一時刻に同一アイデンティティへ2回発行しても、双方が独立に有効であることを検証。
// 単一アクティブセッションの制約は存在しない。
func TestCodec_Issue_TwiceSameInstant_BothValid(t *testing.T) {
	c := newTestCodec(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	tok1, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok2, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tok := range []string{tok1, tok2} {
		email, err := c.Verify(tok)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if email != "a@x.com" {
			t.Errorf("email = %q, want %q", email, "a@x.com")
		}
	}
}

func TestNewCodec_Defaults(t *testing.T) {
	c := NewCodec(CodecConfig{Secret: "s"})
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
	if c.now == nil {
		t.Error("expected default clock")
	}
}
