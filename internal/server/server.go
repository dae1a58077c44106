package server

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"framenote-backend/internal/ai"
	"framenote-backend/internal/annotation"
	"framenote-backend/internal/auth"
	"framenote-backend/internal/config"
	"framenote-backend/internal/handler"
	"framenote-backend/internal/hub"
	"framenote-backend/internal/model"
	"framenote-backend/internal/presence"
	"framenote-backend/internal/storage"
)

// Server Fiber 서버 래퍼
type Server struct {
	app *fiber.App
	cfg *config.Config
	db  *gorm.DB

	hub        *hub.Hub
	hubCancel  context.CancelFunc
	summarizer *ai.Summarizer
	presence   *presence.Manager

	authHandler      *handler.AuthHandler
	projectHandler   *handler.ProjectHandler
	commentHandler   *handler.CommentHandler
	commentWSHandler *handler.CommentWSHandler
	storageHandler   *handler.StorageHandler
	healthHandler    *handler.HealthHandler
	jwtManager       *auth.JWTManager
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Framenote Review API",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384, // 16KB - 큰 헤더 허용
		WriteBufferSize:       16384,
		BodyLimit:             1 * 1024 * 1024, // 1MB - 비디오 바이트는 S3로 직접 업로드
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.Auth.GoogleClientID)
	authHandler := handler.NewAuthHandler(db, jwtManager, googleAuth, cfg.Auth.SecureCookie)

	store := annotation.NewGormStore(db)
	commentHub := hub.NewHub(store, cfg.Sync.PollInterval)

	// 리뷰어 presence (Redis 기반)
	presenceMgr := presence.NewManager(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Summarizer 초기화 (선택적)
	var summarizer *ai.Summarizer
	if cfg.AI.Enabled && cfg.AI.ProjectID != "" {
		var err error
		summarizer, err = ai.NewSummarizer(context.Background(), &cfg.AI)
		if err != nil {
			log.Printf("⚠️ Summarizer initialization failed: %v (summaries will be degraded)", err)
			summarizer = nil
		} else {
			log.Printf("✅ Summarizer initialized (model: %s)", cfg.AI.Model)
		}
	} else {
		log.Println("ℹ️ Summarizer not configured (summaries will be degraded)")
	}

	// S3 서비스 초기화 (선택적)
	var s3Service *storage.S3Service
	if cfg.S3.BucketName != "" && cfg.S3.AccessKeyID != "" {
		var err error
		s3Service, err = storage.NewS3Service(&cfg.S3)
		if err != nil {
			log.Printf("⚠️ S3 service initialization failed: %v (video upload will be disabled)", err)
		} else {
			log.Printf("✅ S3 service initialized (bucket: %s)", cfg.S3.BucketName)
		}
	} else {
		log.Println("ℹ️ S3 service not configured (video upload will be disabled)")
	}

	return &Server{
		app:              app,
		cfg:              cfg,
		db:               db,
		hub:              commentHub,
		summarizer:       summarizer,
		presence:         presenceMgr,
		authHandler:      authHandler,
		projectHandler:   handler.NewProjectHandler(db, store, presenceMgr),
		commentHandler:   handler.NewCommentHandler(db, store, commentHub, summarizer),
		commentWSHandler: handler.NewCommentWSHandler(commentHub, cfg.WebSocket.WriteTimeout),
		storageHandler:   handler.NewStorageHandler(db, s3Service, cfg.S3.Region),
		healthHandler:    handler.NewHealthHandler(db),
		jwtManager:       jwtManager,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,              // 최대 10회
		Expiration: 1 * time.Minute, // 1분당
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// Auth 라우트 그룹
	authGroup := s.app.Group("/auth")
	authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", auth.AuthMiddleware(s.jwtManager), s.authHandler.Logout) // 인증된 사용자만
	authGroup.Get("/me", auth.AuthMiddleware(s.jwtManager), s.authHandler.GetMe)

	// 공유 링크 (로그인 없이 접근 가능)
	s.app.Get("/share/:publicId", auth.OptionalAuthMiddleware(s.jwtManager), s.projectHandler.GetSharedProject)

	// Project 라우트 그룹 (인증 필요, :id는 숫자 id 또는 publicId)
	projectGroup := s.app.Group("/api/projects", auth.AuthMiddleware(s.jwtManager))
	projectGroup.Post("/", s.projectHandler.CreateProject)
	projectGroup.Get("/", s.projectHandler.GetMyProjects)
	projectGroup.Get("/:id", s.projectHandler.GetProject)
	projectGroup.Delete("/:id", s.projectHandler.DeleteProject)

	// 리뷰어 presence 라우트
	projectGroup.Post("/:id/review/join", s.projectHandler.JoinReview)
	projectGroup.Post("/:id/review/heartbeat", s.projectHandler.HeartbeatReview)
	projectGroup.Post("/:id/review/leave", s.projectHandler.LeaveReview)
	projectGroup.Get("/:id/reviewers", s.projectHandler.GetReviewers)

	// Comment 라우트
	projectGroup.Get("/:id/comments", s.commentHandler.ListComments)
	projectGroup.Post("/:id/comments", s.commentHandler.AddComment)
	projectGroup.Put("/:id/comments/:commentId/resolve", s.commentHandler.ResolveComment)
	projectGroup.Get("/:id/summary", s.commentHandler.Summarize)

	// 비디오 업로드/재생 라우트 (S3 presign)
	projectGroup.Post("/:id/video/presign", s.storageHandler.GetPresignedURL)
	projectGroup.Post("/:id/video/confirm", s.storageHandler.ConfirmUpload)
	projectGroup.Get("/:id/video/url", s.storageHandler.GetVideoURL)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 코멘트 스트림 엔드포인트 (프로젝트 단위)
	s.app.Get("/ws/comments/:id", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// 쿠키에서 JWT 토큰 추출 (쿠키가 없으면 쿼리 파라미터 허용)
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			accessToken = c.Query("token")
		}
		if accessToken == "" {
			// WebSocket은 JSON 응답 대신 연결 거부
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		// JWT 검증
		claims, err := s.jwtManager.ValidateAccessToken(accessToken)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		projectID, err := s.lookupProjectID(c.Params("id"))
		if err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}

		c.Locals("projectID", projectID)
		c.Locals("userID", claims.UserID)

		return c.Next()
	}, websocket.New(s.commentWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// lookupProjectID 라우트 파라미터를 프로젝트 id로 변환 (숫자 id → publicId 순서)
func (s *Server) lookupProjectID(param string) (int64, error) {
	if id, err := strconv.ParseInt(param, 10, 64); err == nil {
		var count int64
		s.db.Model(&model.Project{}).Where("id = ?", id).Count(&count)
		if count > 0 {
			return id, nil
		}
	}

	var project model.Project
	if err := s.db.Select("id").Where("public_id = ?", param).First(&project).Error; err != nil {
		return 0, errors.New("project not found")
	}
	return project.ID, nil
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// 코멘트 허브 폴링 루프 시작
	hubCtx, cancel := context.WithCancel(context.Background())
	s.hubCancel = cancel
	go s.hub.Run(hubCtx)

	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		cancel()
		if s.summarizer != nil {
			s.summarizer.Close()
		}
		if s.presence != nil {
			_ = s.presence.Close()
		}
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Framenote Review API starting on %s", s.cfg.Server.Port)
	log.Printf("📡 Comment stream endpoint: ws://localhost%s/ws/comments/:id", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	if s.hubCancel != nil {
		s.hubCancel()
	}
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
