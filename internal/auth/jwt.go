package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// トークンの有効期間。検証に成功するたびに新しいトークンを発行するため、
// 操作が続く限りセッションはこの期間ずつ延長される（スライディング方式）。
const tokenLifetime = 5 * time.Minute

var (
	// ErrExpiredToken はJWTの有効期限が切れている場合のエラーです。
	ErrExpiredToken = errors.New("auth: token has expired")
	// ErrInvalidToken は署名不一致や形式不正のJWTを示すエラーです。
	ErrInvalidToken = errors.New("auth: token is not valid")
)

// Codec はJWTの発行と検証を行う構造体です。
// 秘密鍵はプロセス起動時に一度だけ設定します。
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec はトークンコーデックを作成します。
func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue はサブジェクト（メールアドレス）を持つJWTを発行します。
func (c *Codec) Issue(subject string) (string, error) {
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify はJWTを検証し、サブジェクトを返します。
// 期限切れは ErrExpiredToken、それ以外の検証失敗は ErrInvalidToken を返します。
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
