package offers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/quickhire/internal/realtime"
	"github.com/nao1215/quickhire/pkg/middleware"
	"github.com/nao1215/quickhire/pkg/offer"
)

// serviceName はログとヘルスチェックで使うサービス名。
const serviceName = "offers"

// Server はオファーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はオファーの保存先。
	store *Store
	// publisher はステータス変更イベントの発行先。
	publisher realtime.Publisher
	// jwtSecret はセッショントークンの署名鍵。
	jwtSecret string
	// devTokens は開発用トークン発行を有効にするかどうか。
	devTokens bool
}

// NewServer は新しいオファーサーバーを生成する。
func NewServer(cfg Config, store *Store, publisher realtime.Publisher) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(serviceName))
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		store:     store,
		publisher: publisher,
		jwtSecret: cfg.JWTSecret,
		devTokens: cfg.DevTokens,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxが終了するとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Offers] サーバーを起動します: port=%s", s.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	if s.devTokens {
		// 開発用トークン発行（本番環境では無効化すること）
		s.router.POST("/auth/dev-token", s.handleDevToken())
	}

	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	{
		// 顧客のオファー一覧（スナップショット）取得
		api.GET("/customers/:customer_id/offers", s.handleListForCustomer())
		// オファー作成（顧客）
		api.POST("/offers", s.handleCreate())
		// ステータス変更（フリーランサー）
		api.PUT("/offers/:id/status", s.handleUpdateStatus())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}

// devTokenRequest は開発用トークン発行リクエストのJSON構造。
type devTokenRequest struct {
	// UserID はトークンに含めるユーザーID。空の場合は新規に採番する。
	UserID string `json:"user_id"`
	// Email はトークンに含めるメールアドレス。
	Email string `json:"email"`
	// Role はユーザーの役割。空の場合はcustomer。
	Role middleware.Role `json:"role"`
}

// handleDevToken は開発用のセッショントークンを発行するハンドラ。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devTokenRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
				return
			}
		}

		if req.UserID == "" {
			req.UserID = uuid.New().String()
		}
		if req.Email == "" {
			req.Email = "dev@localhost"
		}
		switch req.Role {
		case "":
			req.Role = middleware.RoleCustomer
		case middleware.RoleCustomer, middleware.RoleFreelancer:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不明なロールです: %s", req.Role)})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, req.UserID, req.Email, req.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			log.Printf("[Offers] JWT生成エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":   token,
			"user_id": req.UserID,
			"role":    req.Role,
		})
	}
}

// handleListForCustomer は顧客の全オファーを返すハンドラ。
// 本人以外のオファー一覧は取得できない。
func (s *Server) handleListForCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		customerID := c.Param("customer_id")
		if userID != customerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "他のユーザーのオファーは取得できません"})
			return
		}

		offers, err := s.store.ListByCustomer(c.Request.Context(), customerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "オファー一覧の取得に失敗しました"})
			log.Printf("[Offers] オファー一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, offers)
	}
}

// createRequest はオファー作成リクエストのJSON構造。
type createRequest struct {
	// FreelancerID はオファーを送るフリーランサーのユーザーID。
	FreelancerID string `json:"freelancer_id" binding:"required"`
	// Title は依頼内容のタイトル。
	Title string `json:"title" binding:"required"`
}

// handleCreate は保留中のオファーを作成するハンドラ。顧客のみ実行できる。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.GetRole(c) != middleware.RoleCustomer {
			c.JSON(http.StatusForbidden, gin.H{"error": "オファーを作成できるのは顧客のみです"})
			return
		}

		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		now := time.Now().UTC()
		o := offer.Offer{
			ID:           uuid.New().String(),
			CustomerID:   middleware.GetUserID(c),
			FreelancerID: req.FreelancerID,
			Title:        req.Title,
			Status:       offer.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.Create(c.Request.Context(), o); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "オファーの作成に失敗しました"})
			log.Printf("[Offers] オファー作成エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, o)
	}
}

// updateStatusRequest はステータス変更リクエストのJSON構造。
type updateStatusRequest struct {
	// Status は変更後のステータス。
	Status offer.Status `json:"status" binding:"required"`
}

// handleUpdateStatus はオファーのステータスを変更し、顧客のトピックへイベントを発行するハンドラ。
// オファーを受けたフリーランサーのみ実行できる。
func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.GetRole(c) != middleware.RoleFreelancer {
			c.JSON(http.StatusForbidden, gin.H{"error": "ステータスを変更できるのはフリーランサーのみです"})
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if !req.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不明なステータスです: %s", req.Status)})
			return
		}

		o, previous, err := s.store.UpdateStatus(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Status)
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case errors.Is(err, ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ステータスの更新に失敗しました"})
			log.Printf("[Offers] ステータス更新エラー: %v", err)
			return
		}

		// 発行に失敗してもステータス変更は成功として扱う。購読側は次回のスナップショットで追いつく。
		ev := offer.NewUpdateEvent(o, previous)
		if err := s.publisher.Publish(c.Request.Context(), realtime.Topic(o.CustomerID), ev); err != nil {
			log.Printf("[Offers] 変更イベントの発行に失敗: offer_id=%s: %v", o.ID, err)
		}

		c.JSON(http.StatusOK, o)
	}
}
