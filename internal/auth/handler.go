package auth

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type userBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CsrfToken は GET /api/csrftoken のハンドラーです。
// 新しいCSRFトークンを発行し、署名付きクッキーセッションに保存して返します。
func (m *Manager) CsrfToken(c *gin.Context) {
	token, err := generateCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "TOKEN_GENERATION_FAILED",
			"message": "Failed to generate CSRF token",
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyCSRF, token)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "Failed to save CSRF session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}

// Register は POST /api/register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	var req userBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "Send email and password as JSON",
		})
		return
	}

	user, err := m.users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "EMAIL_TAKEN",
				"message": "Email is already taken",
			})
		case errors.Is(err, ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "PASSWORD_TOO_SHORT",
				"message": "Password too short",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "SIGNUP_FAILED",
				"message": "Failed to create user",
			})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// Login は POST /api/login のハンドラーです。
// 認証に成功するとセッションクッキーを設定します。
func (m *Manager) Login(c *gin.Context) {
	var req userBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "Send email and password as JSON",
		})
		return
	}

	token, err := m.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// メールアドレス不明とパスワード不一致は区別しない
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "Invalid email or password",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "LOGIN_FAILED",
			"message": "Failed to log in",
		})
		return
	}

	m.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged-in"})
}

// Logout は POST /api/logout のハンドラーです。
// セッションを検証したうえでクッキーを削除します。
func (m *Manager) Logout(c *gin.Context) {
	if _, err := m.VerifyRequest(c); err != nil {
		abortWithAuthError(c, err)
		return
	}

	m.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged-out"})
}

// CurrentUser は GET /api/user のハンドラーです。
// RequireSession ミドルウェアの後段で呼ばれる想定です。
func (m *Manager) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"email": c.GetString(ContextUserKey)})
}
