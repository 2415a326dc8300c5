package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewIssuer_缺少JWT_SECRET应失败(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := NewIssuer("", time.Hour); !errors.Is(err, ErrJWTSecretMissing) {
		t.Fatalf("期望 ErrJWTSecretMissing, got=%v", err)
	}
}

func TestNewIssuer_回退到环境变量(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	if _, err := NewIssuer("", 0); err != nil {
		t.Fatalf("期望读取环境变量成功, err=%v", err)
	}
}

func TestAwardParse_正常签发并解析(t *testing.T) {
	iss, err := NewIssuer("test-secret-123", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer err=%v", err)
	}

	token, err := iss.Award("alice", ScopeBooksWrite, "books:read")
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}
	if token == "" {
		t.Fatalf("期望 token 非空")
	}

	_, claims, err := iss.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken err=%v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("期望 subject=alice, got=%q", claims.Subject)
	}
	if !claims.HasScope(ScopeBooksWrite) || claims.HasScope("admin") {
		t.Fatalf("scope 判断有误, scope=%q", claims.Scope)
	}
}

func TestParseToken_密钥不一致失败(t *testing.T) {
	a, _ := NewIssuer("secret-a", time.Hour)
	b, _ := NewIssuer("secret-b", time.Hour)
	token, _ := a.Award("alice")
	if _, _, err := b.ParseToken(token); err == nil {
		t.Fatalf("期望用不同密钥解析失败")
	}
}

func TestParseToken_过期失败(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Minute)
	base := time.Now()
	iss.now = func() time.Time { return base }
	token, _ := iss.Award("alice")

	iss.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, _, err := iss.ParseToken(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("期望 ErrTokenExpired, got=%v", err)
	}
}

func TestSubjectFrom_默认匿名(t *testing.T) {
	if got := SubjectFrom(context.Background()); got != Anonymous {
		t.Fatalf("期望 anonymous, got=%q", got)
	}
	if got := SubjectFrom(WithSubject(context.Background(), "bob")); got != "bob" {
		t.Fatalf("期望 bob, got=%q", got)
	}
}
