// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-api/internal/auth"
	"github.com/yourusername/todo-api/internal/config"
	"github.com/yourusername/todo-api/internal/db"
	"github.com/yourusername/todo-api/internal/todo"
)

// CSRFトークンを保持する署名付きクッキーセッションの名前です。
const csrfSessionName = "csrf_session"

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// MongoDBへの接続
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := database.Close(context.Background()); err != nil {
			log.Printf("Failed to disconnect from MongoDB: %v", err)
		}
	}()

	if err := database.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	secure := cfg.GinMode == gin.ReleaseMode

	// CSRFトークン保存用の署名付きクッキーセッション
	// フロントエンドが別オリジンで動くため SameSite=None にする
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
	})
	router.Use(sessions.Sessions(csrfSessionName, store))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	router.Use(cors.New(corsConfig))

	// 認証まわりの組み立て
	codec := auth.NewCodec(cfg.JWTKey)
	hasher := auth.NewHasher(cfg.HashWorkers)
	accounts := auth.NewService(database.Users(), hasher, codec)
	authManager := auth.NewManager(codec, accounts, secure)

	todoService := todo.NewService(database.Todos())

	// ルーティングの設定
	setupRoutes(router, authManager, todoService)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleRoot は死活確認用のハンドラーです。
func handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Todo API"})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, todoService *todo.Service) {
	// 誰でも叩ける死活確認
	router.GET("/", handleRoot)

	api := router.Group("/api")
	{
		// CSRFトークンの発行（クッキーを設定する副作用あり）
		api.GET("/csrftoken", authManager.CsrfToken)

		// 状態を変更する認証系エンドポイントはCSRF検証を通す
		api.POST("/register", authManager.VerifyCSRF(), authManager.Register)
		api.POST("/login", authManager.VerifyCSRF(), authManager.Login)
		api.POST("/logout", authManager.VerifyCSRF(), authManager.Logout)

		// ログイン中のユーザー情報（トークンの再発行を伴う）
		api.GET("/user", authManager.RequireSession(), authManager.CurrentUser)

		// Todo CRUD: CSRF検証 → セッション検証・トークン再発行 の順で通す
		// （GET は VerifyCSRF 内で素通りする）
		todos := api.Group("/todo")
		todos.Use(authManager.VerifyCSRF(), authManager.RequireSession())
		{
			todos.POST("", todo.CreateHandler(todoService))
			todos.GET("", todo.ListHandler(todoService))
			todos.GET("/:id", todo.GetHandler(todoService))
			todos.PUT("/:id", todo.UpdateHandler(todoService))
			todos.DELETE("/:id", todo.DeleteHandler(todoService))
		}
	}
}
