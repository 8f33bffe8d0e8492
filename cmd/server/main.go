// Skiftplan 药房排班引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/skiftplan/skiftplan/internal/config"
	"github.com/skiftplan/skiftplan/internal/constraints"
	"github.com/skiftplan/skiftplan/internal/database"
	"github.com/skiftplan/skiftplan/internal/handler"
	"github.com/skiftplan/skiftplan/internal/metrics"
	"github.com/skiftplan/skiftplan/internal/middleware"
	"github.com/skiftplan/skiftplan/internal/repository"
	"github.com/skiftplan/skiftplan/pkg/logger"
	"github.com/skiftplan/skiftplan/pkg/scheduler"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logFormat := "json"
	if cfg.IsDevelopment() {
		logFormat = "console"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: logFormat,
	})

	// 打印版本信息
	fmt.Printf("Skiftplan 排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 引擎无状态，数据库仅用于持久化端点，可关闭
	var (
		scheduleRepo      repository.ScheduleRepositoryInterface
		postingRepo       *repository.PostingRepository
		employeeShiftRepo *repository.EmployeeShiftRepository
	)
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database)
		if err != nil {
			logger.Error().Err(err).Msg("数据库连接失败")
			os.Exit(1)
		}
		defer db.Close()
		scheduleRepo = repository.NewScheduleRepository(db)
		postingRepo = repository.NewPostingRepository(db)
		employeeShiftRepo = repository.NewEmployeeShiftRepository(db)
		logger.Info().Str("host", cfg.Database.Host).Msg("数据库已连接")
	} else {
		logger.Info().Msg("数据库未启用，持久化端点不可用")
	}

	// 创建排班引擎与处理器
	engine := scheduler.NewEngine(scheduler.Options{
		DefaultLunchMinutes:     cfg.Engine.DefaultLunchMinutes,
		LunchThresholdHours:     cfg.Engine.LunchThresholdHours,
		FairnessToleranceHours:  cfg.Engine.FairnessToleranceHours,
		RepairPassEnabled:       cfg.Engine.RepairPassEnabled,
		RepairPassMaxIterations: cfg.Engine.RepairPassMaxIterations,
	})
	scheduleHandler := handler.NewScheduleHandler(engine, scheduleRepo, postingRepo, employeeShiftRepo)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"skiftplan"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "Skiftplan 排班引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"validate": "POST /api/v1/schedule/validate",
					"recommend_cover": "POST /api/v1/schedule/recommend-cover"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"schedules": {
					"save": "POST /api/v1/schedules",
					"list": "GET /api/v1/schedules",
					"shifts": "GET /api/v1/schedules/{id}/shifts",
					"publish": "POST /api/v1/schedules/{id}/shifts/{shiftID}/publish",
					"sync": "POST /api/v1/schedules/{id}/sync"
				},
				"stats": {
					"utilization": "POST /api/v1/stats/utilization"
				}
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)

	// 排班验证 API
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)

	// 替班推荐 API
	mux.HandleFunc("POST /api/v1/schedule/recommend-cover", scheduleHandler.RecommendCover)

	// 约束库 API - 返回引擎实际执行的所有约束定义
	mux.HandleFunc("GET /api/v1/constraints/library", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(constraints.LibraryResponse{Library: constraints.GetLibrary()})
	})

	// ========================================
	// 排班计划持久化 API
	// ========================================

	mux.HandleFunc("POST /api/v1/schedules", scheduleHandler.Save)
	mux.HandleFunc("GET /api/v1/schedules", scheduleHandler.List)
	mux.HandleFunc("GET /api/v1/schedules/{id}/shifts", scheduleHandler.GetShifts)
	mux.HandleFunc("POST /api/v1/schedules/{id}/shifts/{shiftID}/publish", scheduleHandler.Publish)
	mux.HandleFunc("POST /api/v1/schedules/{id}/sync", scheduleHandler.Sync)

	// ========================================
	// 统计分析 API
	// ========================================

	// 工时利用分析 API
	mux.HandleFunc("POST /api/v1/stats/utilization", scheduleHandler.Utilization)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：requestID -> auth -> rateLimit -> cors -> logging -> handler
	var root http.Handler = rateLimitMiddleware(cfg.API.RateLimit, corsMiddleware(loggingMiddleware(mux)))
	if cfg.App.APIKey != "" {
		// 全局限流由令牌桶中间件负责，这里只做密钥校验
		auth := middleware.AuthMiddleware(&middleware.AuthConfig{
			StaticAPIKey: cfg.App.APIKey,
			SkipPaths:    []string{"/health", "/version", cfg.Metrics.Path},
		})
		root = auth(root)
	}
	root = requestIDMiddleware(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 尝试从请求头获取 Request ID，没有则生成新的
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// 设置响应头
		w.Header().Set("X-Request-ID", requestID)

		// 将 Request ID 存储到 context 中
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 获取 Request ID
		requestID, _ := r.Context().Value("request_id").(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		// 记录Prometheus指标
		metrics.RecordRequestMetrics(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(requestsPerSecond int, next http.Handler) http.Handler {
	limiter := NewRateLimiter(float64(requestsPerSecond))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
