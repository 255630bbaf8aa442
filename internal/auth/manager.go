// Package auth はJWTによるセッション管理、CSRF保護、パスワードハッシュ化を提供します。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName はJWTを格納するクッキーの名前です。
	SessionCookieName = "access_token"
	// 値は "Bearer <token>" の形式で格納する
	bearerScheme = "Bearer"

	csrfHeader     = "X-CSRF-Token"
	sessionKeyCSRF = "csrf_token"
)

// ContextUserKey は、ハンドラー間で認証済みサブジェクト（メールアドレス）を共有するためのキーです。
const ContextUserKey = "auth.subject"

// ErrNoSession はセッションクッキーが存在しない場合のエラーです。
var ErrNoSession = errors.New("auth: no session cookie")

// Accounts は登録・ログイン処理を提供するサービスが実装します。
type Accounts interface {
	Signup(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// Manager は認証ミドルウェアとハンドラーをまとめた構造体です。
type Manager struct {
	codec  *Codec
	users  Accounts
	secure bool
}

// NewManager は認証マネージャーを作成します。
// secure はセッションクッキーに Secure 属性を付けるかどうかを指定します。
func NewManager(codec *Codec, users Accounts, secure bool) *Manager {
	return &Manager{
		codec:  codec,
		users:  users,
		secure: secure,
	}
}

// TokenFromRequest はセッションクッキーからJWTを取り出します。
// クッキーが無い場合は ErrNoSession、Bearer形式でない場合は ErrInvalidToken を返します。
func (m *Manager) TokenFromRequest(c *gin.Context) (string, error) {
	raw, err := c.Cookie(SessionCookieName)
	if err != nil {
		return "", ErrNoSession
	}

	scheme, token, found := strings.Cut(raw, " ")
	if !found || scheme != bearerScheme || token == "" {
		return "", ErrInvalidToken
	}

	return token, nil
}

// VerifyRequest はリクエストのJWTを検証し、サブジェクトを返します。
func (m *Manager) VerifyRequest(c *gin.Context) (string, error) {
	token, err := m.TokenFromRequest(c)
	if err != nil {
		return "", err
	}
	return m.codec.Verify(token)
}

// RequireSession はJWTを検証し、新しいトークンを再発行するミドルウェアを返します。
// 検証に成功するたびにクッキーを更新するため、有効期限はスライドします。
// サブジェクトは ContextUserKey でハンドラーに渡されます。
func (m *Manager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := m.VerifyRequest(c)
		if err != nil {
			abortWithAuthError(c, err)
			return
		}

		newToken, err := m.codec.Issue(subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    "TOKEN_ISSUE_FAILED",
				"message": "Failed to refresh session token",
			})
			return
		}

		m.setSessionCookie(c, newToken)
		c.Set(ContextUserKey, subject)
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアを返します。
// 期待値は署名付きクッキーセッションに保存されたトークンです（ダブルサブミット方式）。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "The CSRF token is missing",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "The CSRF token does not match",
			})
			return
		}

		c.Next()
	}
}

// setSessionCookie は "Bearer <token>" 形式でセッションクッキーを設定します。
// フロントエンドが別オリジンで動くため SameSite=None を指定します。
func (m *Manager) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(SessionCookieName, bearerScheme+" "+token, 0, "/", "", m.secure, true)
}

// clearSessionCookie はセッションクッキーを削除します。
func (m *Manager) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", m.secure, true)
}

// abortWithAuthError は認証エラーをHTTPステータスに変換します。
func abortWithAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoSession):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "NO_SESSION",
			"message": "No session cookie: may not be set yet or deleted",
		})
	case errors.Is(err, ErrExpiredToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "TOKEN_EXPIRED",
			"message": "The JWT has expired",
		})
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "TOKEN_INVALID",
			"message": "JWT is not valid",
		})
	}
}

// generateCSRFToken はCSRFトークン用の乱数文字列を生成します。
func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
