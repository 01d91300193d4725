package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"subleet-admin/internal/adapter/deploy"
	"subleet-admin/internal/adapter/notification"
	"subleet-admin/internal/api/router"
	"subleet-admin/internal/core/lifecycle"
	"subleet-admin/internal/pkg/aiplatform"
	"subleet-admin/internal/pkg/cache"
	"subleet-admin/internal/pkg/config"
	"subleet-admin/internal/pkg/database"
	"subleet-admin/internal/pkg/jwt"
	"subleet-admin/internal/pkg/logger"
	"subleet-admin/internal/pkg/metrics"
	"subleet-admin/internal/repository"
	"subleet-admin/internal/scheduler"
	"subleet-admin/internal/service"
)

// @title Subleet Admin API
// @version 1.0
// @description 项目密钥与函数部署管理接口
// @description 提供项目开通、密钥查看与轮换、启停、来源修改、删除等功能

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var (
	configFile  = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version     = flag.Bool("version", false, "显示版本信息")
	printConfig = flag.Bool("print-config", false, "输出脱敏后的生效配置并退出")
	issueToken  = flag.String("issue-token", "", "签发访问Token并退出, 格式 uid:role (例如: -issue-token=1:admin)")
)

const (
	appVersion = "1.0.0"
	appName    = "subleet-admin"
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 显示版本信息
	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// init config logger
	var cfg *config.Config
	{
		// 优先级: 命令行参数 > 环境变量 > 默认路径
		configPath := getConfigPath()

		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			fmt.Println("\n使用方式:")
			fmt.Println("  1. 命令行参数指定:")
			fmt.Println("     ./subleet-admin -config=configs/config.yaml")
			fmt.Println("  2. 环境变量指定:")
			fmt.Println("     export CONFIG_FILE=configs/config.yaml")
			fmt.Println("     ./subleet-admin")
			fmt.Println("  3. 使用默认配置:")
			fmt.Println("     ./subleet-admin  (将使用 configs/config.yaml)")
			os.Exit(1)
		}
		cfg = c

		if *printConfig {
			out, err := cfg.Redacted()
			if err != nil {
				fmt.Printf("输出配置失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
			os.Exit(0)
		}

		if *issueToken != "" {
			token, err := signToken(*issueToken)
			if err != nil {
				fmt.Printf("签发Token失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(token)
			os.Exit(0)
		}

		// 缺少密钥等不安全配置时禁止启动
		if err := cfg.Validate(); err != nil {
			fmt.Printf("配置校验失败: %v\n", err)
			os.Exit(1)
		}

		// 初始化日志
		if err := logger.Init(&cfg.Log); err != nil {
			fmt.Printf("初始化日志失败: %v\n", err)
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))

		defer func() {
			_ = logger.Close()
		}()
	}

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", appVersion))

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close()
	}()

	logger.Info(fmt.Sprintf("数据库连接成功 %s:%v", cfg.Database.Host, cfg.Database.Port), zap.String("database", cfg.Database.Database))

	// 读缓存, 未配置 redis 时关闭
	var readCache cache.Cache = cache.NopCache{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = rdb.Close()
		}()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis 连接失败, 关闭读缓存", zap.Error(err))
		} else {
			readCache = cache.NewRedisCache(rdb, cfg.Cache.Prefix, time.Duration(cfg.Cache.TTL)*time.Second, logger.Named("cache"))
			logger.Info("Redis 连接成功", zap.String("addr", cfg.Redis.Addr))
		}
		cancel()
	}

	m := metrics.New()

	// 初始化Repository
	db := database.GetDB()
	projectRepo := repository.NewProjectRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	resourceRepo := repository.NewAIResourceRepository(db)
	runRepo := repository.NewProvisionRunRepository(db)

	// 生命周期编排
	manager, err := lifecycle.NewManager(lifecycle.Deps{
		Projects:  projectRepo,
		Keys:      apiKeyRepo,
		Resources: resourceRepo,
		Runs:      runRepo,
		AI:        aiplatform.NewClient(&cfg.AIPlatform, logger.Named("aiplatform"), m),
		Deployer:  deploy.NewEdgeDeployer(&cfg.EdgeHost, logger.Named("deploy"), m),
		Notifier:  notification.New(&cfg.Notification, logger.Named("notification")),
		Metrics:   m,
	}, lifecycle.OptionsFromConfig(cfg), logger.Named("lifecycle"))
	if err != nil {
		logger.Fatal("初始化生命周期管理失败", zap.Error(err))
	}

	// 初始化Service
	projectService := service.NewProjectService(manager, projectRepo, resourceRepo, runRepo, readCache, logger.Named("service"))
	apiKeyService := service.NewAPIKeyService(manager, projectRepo, readCache, logger.Named("service"))

	// 初始化并启动定时任务调度器
	taskScheduler := scheduler.NewScheduler(manager, logger.Named("scheduler"))
	if err := taskScheduler.Start(&cfg.Reconcile); err != nil {
		logger.Warn("定时任务调度器启动失败", zap.Error(err))
	}

	// 设置路由
	r := router.Setup(cfg, router.Services{
		Projects: projectService,
		APIKeys:  apiKeyService,
		Metrics:  m,
	}, logger.Log)

	// 创建HTTP服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	// 关闭定时任务调度器
	taskScheduler.Stop()

	// 开通等工作流会调用多个外部服务, 多给一些时间
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// signToken 身份服务不在本服务内, 本地调试和初始化管理员时用它签发Token
func signToken(spec string) (string, error) {
	uidStr, role, ok := strings.Cut(spec, ":")
	if !ok || role == "" {
		return "", fmt.Errorf("格式应为 uid:role, 实际为 %q", spec)
	}
	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil || uid <= 0 {
		return "", fmt.Errorf("uid 无效: %q", uidStr)
	}
	if config.GlobalConfig.Auth.JWT.Secret == "" {
		return "", errors.New("auth.jwt.secret 未配置")
	}
	return jwt.GenerateAccessToken(uid, "cli", "", role)
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	// 1. 命令行参数
	if *configFile != "" {
		return *configFile
	}

	// 2. 环境变量
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}

	// 3. 默认路径
	return "configs/config.yaml"
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}
