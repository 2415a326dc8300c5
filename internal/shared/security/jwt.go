package security

import (
	"errors"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrJWTSecretMissing = errors.New("JWT_SECRET is not set")

const (
	// ScopeBooksWrite 允许写图书（增删改）。
	ScopeBooksWrite = "books:write"

	defaultTokenTTL = 24 * time.Hour
)

type Claims struct {
	// Scope 为空格分隔的权限列表（OAuth2 风格）。
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// HasScope 判断令牌是否带有某个权限。
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(strings.Fields(c.Scope), scope)
}

// Issuer 负责签发与校验 HS256 令牌。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer secret 为空时回退到环境变量 JWT_SECRET；都没有则返回 ErrJWTSecretMissing。
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return nil, ErrJWTSecretMissing
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Award 生成 Token。
func (i *Issuer) Award(subject string, scopes ...string) (string, error) {
	now := i.now()
	claims := &Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ParseToken 解析并验证 Token。
func (i *Issuer) ParseToken(tokenStr string) (*jwt.Token, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, nil, err
	}
	if token == nil || !token.Valid {
		return nil, nil, jwt.ErrTokenInvalidClaims
	}
	return token, claims, nil
}
